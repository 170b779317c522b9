package gather

import "testing"

func TestTakerSide(t *testing.T) {
	if got := takerSide("B"); got != "buy" {
		t.Errorf("takerSide(B) = %q, want buy", got)
	}
	if got := takerSide("S"); got != "sell" {
		t.Errorf("takerSide(S) = %q, want sell", got)
	}
	if got := takerSide("buy"); got != "buy" {
		t.Errorf("takerSide(buy) = %q, want pass-through", got)
	}
}

func TestGathererNames(t *testing.T) {
	q := NewQuoteGatherer("k", "s", "", nil, nil, DateRange{})
	if q.Name() != "crypto-quotes" {
		t.Errorf("Name() = %q", q.Name())
	}
	tr := NewTradeGatherer("k", "s", "", nil, nil, DateRange{})
	if tr.Name() != "crypto-trades" {
		t.Errorf("Name() = %q", tr.Name())
	}
}
