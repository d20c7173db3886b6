package signal

import (
	"time"

	"github.com/edgarlens/edgarlens/internal/domain/entity"
)

// TradeType is the behavioral reading of a Form 4 transaction code.
type TradeType string

const (
	TradeBuy          TradeType = "buy"
	TradeSell         TradeType = "sell"
	TradeAward        TradeType = "award"
	TradeDisposition  TradeType = "disposition"
	TradeGift         TradeType = "gift"
	TradeConversion   TradeType = "conversion"
	TradeWill         TradeType = "will"
	TradeExerciseHold TradeType = "exercise_hold"
	TradeExerciseSell TradeType = "exercise_sell"
	TradeTax          TradeType = "tax"
	TradeOther        TradeType = "other"
)

// TypedTransaction pairs a raw transaction with its behavioral type.
type TypedTransaction struct {
	entity.InsiderTransaction
	Type TradeType `json:"trade_type"`
}

// Bullish reports whether the trade type signals conviction: open-market
// buys, and option exercises where the insider kept the shares.
func (t TradeType) Bullish() bool {
	return t == TradeBuy || t == TradeExerciseHold
}

// Bearish reports whether the trade type signals distribution.
func (t TradeType) Bearish() bool {
	return t == TradeSell || t == TradeDisposition
}

// ClassifyTransactions types every transaction in the set. Option
// exercises (code M) are ambiguous on their own; an exercise is read as
// exercise_sell when the same filer also reported a sale on the same day,
// otherwise exercise_hold.
func ClassifyTransactions(txs []entity.InsiderTransaction) []TypedTransaction {
	type filerDay struct {
		filer string
		day   time.Time
	}
	sameDaySale := make(map[filerDay]bool)
	for _, tx := range txs {
		if tx.Code == entity.CodeSale {
			sameDaySale[filerDay{tx.FilerID, tx.Day()}] = true
		}
	}

	out := make([]TypedTransaction, 0, len(txs))
	for _, tx := range txs {
		tt := TypedTransaction{InsiderTransaction: tx}
		switch tx.Code {
		case entity.CodePurchase:
			tt.Type = TradeBuy
		case entity.CodeSale:
			tt.Type = TradeSell
		case entity.CodeAward:
			tt.Type = TradeAward
		case entity.CodeDisposition:
			tt.Type = TradeDisposition
		case entity.CodeGift:
			tt.Type = TradeGift
		case entity.CodeConversion:
			tt.Type = TradeConversion
		case entity.CodeWill:
			tt.Type = TradeWill
		case entity.CodeTax:
			tt.Type = TradeTax
		case entity.CodeExercise:
			if sameDaySale[filerDay{tx.FilerID, tx.Day()}] {
				tt.Type = TradeExerciseSell
			} else {
				tt.Type = TradeExerciseHold
			}
		default:
			tt.Type = TradeOther
		}
		out = append(out, tt)
	}
	return out
}

// dominanceRatio is how far buy value must exceed sell value (or vice
// versa) before the set is read as directional rather than mixed.
const dominanceRatio = 1.5

// NetDirection compares total bullish value against total bearish value.
// An empty or value-less set has no direction; both sides present without
// clear dominance reads as mixed.
func NetDirection(txs []TypedTransaction) Direction {
	var buyValue, sellValue float64
	for _, tx := range txs {
		switch {
		case tx.Type.Bullish():
			buyValue += tx.Value()
		case tx.Type.Bearish():
			sellValue += tx.Value()
		}
	}

	switch {
	case buyValue == 0 && sellValue == 0:
		return DirectionNone
	case buyValue > sellValue*dominanceRatio:
		return DirectionBuying
	case sellValue > buyValue*dominanceRatio:
		return DirectionSelling
	default:
		return DirectionMixed
	}
}
