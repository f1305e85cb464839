package model

import "time"

// Coarse provider tags as recorded at payment time. The tag alone does not
// identify the settlement rail for local-network payments; see ClassifyRail.
const (
	ProviderCardProcessor = "card_processor"
	ProviderLocalNetwork  = "local_network"
	ProviderWallet        = "wallet"
)

// Payment is read-only input to the refund engine.
type Payment struct {
	ID                string // UUID
	Provider          string // coarse tag, see constants above
	ProviderPaymentID string // provider-side transaction id
	Metadata          map[string]any
	CreatedAt         time.Time
}

// SettlementRail is the closed set of money-movement backends a refund can be
// dispatched to. A historical payment maps to exactly one rail.
type SettlementRail string

const (
	RailCardProcessor         SettlementRail = "card_processor"
	RailLocalNetworkSession   SettlementRail = "local_network_session"
	RailLocalNetworkTokenized SettlementRail = "local_network_tokenized"
	RailWallet                SettlementRail = "wallet"
)

// Metadata keys consulted when the coarse local-network tag is ambiguous.
const (
	metaModeFlag = "local_network_mode" // explicit: "session" | "tokenized"

	metaStoreCommerceCode = "store_commerce_code" // tokenized-recurring markers
	metaStoreBuyOrder     = "store_buy_order"
	metaDetailBuyOrder    = "detail_buy_order"

	metaSessionID = "session_id" // session-mode markers
	metaBuyOrder  = "buy_order"
)

// ClassifyRail infers the settlement rail of a payment from its coarse provider
// tag and recorded metadata, first match wins. The second return value is true
// when no distinguishing signal existed and the session rail was assumed;
// callers must surface that guess, not hide it.
//
// Ideally the rail would be stored on the payment at creation time. Payments
// are read-only here, so the payment-recording subsystem is expected to call
// this at write time; until then every legacy payment goes through it at
// refund time.
func ClassifyRail(p *Payment) (rail SettlementRail, fallback bool, ok bool) {
	switch p.Provider {
	case ProviderCardProcessor:
		return RailCardProcessor, false, true
	case ProviderLocalNetwork:
		if mode, found := metaString(p.Metadata, metaModeFlag); found {
			switch mode {
			case "tokenized":
				return RailLocalNetworkTokenized, false, true
			case "session":
				return RailLocalNetworkSession, false, true
			}
			// Unrecognized flag value: fall through to marker inspection.
		}
		if metaPresent(p.Metadata, metaStoreCommerceCode, metaStoreBuyOrder, metaDetailBuyOrder) {
			return RailLocalNetworkTokenized, false, true
		}
		if metaPresent(p.Metadata, metaSessionID, metaBuyOrder) {
			return RailLocalNetworkSession, false, true
		}
		// No distinguishing field recorded. Session mode is the conservative
		// guess; the caller logs it for manual review.
		return RailLocalNetworkSession, true, true
	case ProviderWallet:
		return RailWallet, false, true
	}
	return "", false, false
}

func metaString(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func metaPresent(m map[string]any, keys ...string) bool {
	if m == nil {
		return false
	}
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, isStr := v.(string); isStr && s == "" {
				continue
			}
			return true
		}
	}
	return false
}
