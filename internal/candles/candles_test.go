package candles

import (
	"math"
	"testing"
	"time"

	"mdsim/internal/domain"
)

func trade(ts int64, price, size float64, side string) domain.Trade {
	return domain.Trade{Timestamp: ts, Price: price, Size: size, Side: side}
}

func TestMakeGroupsByInterval(t *testing.T) {
	// 1ms candles over trades spanning two intervals.
	trades := []domain.Trade{
		trade(0, 10, 1, "buy"),
		trade(400, 12, 2, "sell"),
		trade(900, 11, 1, "buy"),
		trade(1000, 11, 3, "buy"),
		trade(1500, 9, 1, "sell"),
	}
	got := Make(trades, time.Millisecond)

	if len(got) != 2 {
		t.Fatalf("candle count = %d, want 2", len(got))
	}

	first := got[0]
	if first.TimeStart != 0 || first.TimeEnd != 900 {
		t.Errorf("first candle span = [%d, %d], want [0, 900]", first.TimeStart, first.TimeEnd)
	}
	if first.BodyOpen != 10 || first.BodyClose != 11 {
		t.Errorf("first open/close = %v/%v, want 10/11", first.BodyOpen, first.BodyClose)
	}
	if first.ShadowMax != 12 || first.ShadowMin != 10 {
		t.Errorf("first high/low = %v/%v, want 12/10", first.ShadowMax, first.ShadowMin)
	}

	second := got[1]
	if second.BodyOpen != 11 || second.BodyClose != 9 {
		t.Errorf("second open/close = %v/%v, want 11/9", second.BodyOpen, second.BodyClose)
	}
}

func TestMakeSideMeans(t *testing.T) {
	trades := []domain.Trade{
		trade(0, 10, 2, "buy"),
		trade(100, 20, 4, "buy"),
		trade(200, 15, 6, "sell"),
	}
	got := Make(trades, time.Millisecond)

	if len(got) != 1 {
		t.Fatalf("candle count = %d, want 1", len(got))
	}
	c := got[0]
	if c.BuyVolume != 3 {
		t.Errorf("BuyVolume = %v, want 3 (mean of 2 and 4)", c.BuyVolume)
	}
	if c.BuyMeanPrice != 15 {
		t.Errorf("BuyMeanPrice = %v, want 15", c.BuyMeanPrice)
	}
	if c.SellVolume != 6 || c.SellMeanPrice != 15 {
		t.Errorf("sell aggregates = %v@%v, want 6@15", c.SellVolume, c.SellMeanPrice)
	}
}

func TestMakeOneSidedInterval(t *testing.T) {
	trades := []domain.Trade{trade(0, 10, 2, "buy")}
	got := Make(trades, time.Millisecond)

	if len(got) != 1 {
		t.Fatalf("candle count = %d, want 1", len(got))
	}
	if !math.IsNaN(got[0].SellVolume) || !math.IsNaN(got[0].SellMeanPrice) {
		t.Error("intervals without sell trades must report NaN sell aggregates")
	}
}

func TestMakeEmpty(t *testing.T) {
	if got := Make(nil, time.Millisecond); got != nil {
		t.Errorf("Make(nil) = %v, want nil", got)
	}
	if got := Make([]domain.Trade{trade(0, 1, 1, "buy")}, 0); got != nil {
		t.Errorf("Make with zero width = %v, want nil", got)
	}
}

func TestCandleUp(t *testing.T) {
	if !(Candle{BodyOpen: 1, BodyClose: 2}).Up() {
		t.Error("close above open must be up")
	}
	if (Candle{BodyOpen: 2, BodyClose: 1}).Up() {
		t.Error("close below open must not be up")
	}
}
