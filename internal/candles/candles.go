// Package candles aggregates trade ticks into fixed-width candles carrying
// OHLC prices plus per-side mean volumes and prices. The lookahead strategy
// reads these to pick its entries.
package candles

import (
	"math"
	"time"

	"mdsim/internal/domain"
)

// Candle summarizes the trades falling into one fixed time interval.
// BuyVolume/SellVolume and the mean prices are averages over the taker-side
// trades of the interval; they are NaN when the interval has no trades on
// that side.
type Candle struct {
	TimeStart     int64 // first trade timestamp in the interval, Unix µs
	TimeEnd       int64 // last trade timestamp in the interval, Unix µs
	BodyOpen      float64
	BodyClose     float64
	ShadowMax     float64
	ShadowMin     float64
	BuyVolume     float64
	SellVolume    float64
	BuyMeanPrice  float64
	SellMeanPrice float64
}

// Up reports whether the candle closed above its open.
func (c Candle) Up() bool { return c.BodyClose > c.BodyOpen }

// Make groups trades into intervals of the given width and builds one candle
// per non-empty interval, in interval order. Trades must be sorted ascending
// by timestamp; open/close are the first/last trade of the interval by
// position.
func Make(trades []domain.Trade, width time.Duration) []Candle {
	widthMicros := width.Microseconds()
	if widthMicros <= 0 || len(trades) == 0 {
		return nil
	}

	var out []Candle
	cur := -1 // index into out for the interval being built
	curInterval := int64(math.MinInt64)

	type sideAgg struct {
		size, price float64
		n           int
	}
	var buy, sell sideAgg

	finish := func() {
		if cur < 0 {
			return
		}
		c := &out[cur]
		c.BuyVolume = math.NaN()
		c.SellVolume = math.NaN()
		c.BuyMeanPrice = math.NaN()
		c.SellMeanPrice = math.NaN()
		if buy.n > 0 {
			c.BuyVolume = buy.size / float64(buy.n)
			c.BuyMeanPrice = buy.price / float64(buy.n)
		}
		if sell.n > 0 {
			c.SellVolume = sell.size / float64(sell.n)
			c.SellMeanPrice = sell.price / float64(sell.n)
		}
	}

	for _, trade := range trades {
		interval := trade.Timestamp / widthMicros * widthMicros
		if interval != curInterval {
			finish()
			out = append(out, Candle{
				TimeStart: trade.Timestamp,
				TimeEnd:   trade.Timestamp,
				BodyOpen:  trade.Price,
				BodyClose: trade.Price,
				ShadowMax: trade.Price,
				ShadowMin: trade.Price,
			})
			cur = len(out) - 1
			curInterval = interval
			buy, sell = sideAgg{}, sideAgg{}
		}

		c := &out[cur]
		c.TimeEnd = trade.Timestamp
		c.BodyClose = trade.Price
		c.ShadowMax = math.Max(c.ShadowMax, trade.Price)
		c.ShadowMin = math.Min(c.ShadowMin, trade.Price)

		switch trade.Side {
		case "buy":
			buy.size += trade.Size
			buy.price += trade.Price
			buy.n++
		case "sell":
			sell.size += trade.Size
			sell.price += trade.Price
			sell.n++
		}
	}
	finish()

	return out
}
