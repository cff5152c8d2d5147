package journal

import "time"

// FillRecord is one executed option fill.
type FillRecord struct {
	RunID      string
	TradeID    string
	Time       time.Time
	Symbol     string
	Side       string
	Quantity   int
	Price      float64
	Commission float64
	Strategy   string
}

// TradeRecord is one closed position: the round trip from open to close
// or expiry, with its realized P&L.
type TradeRecord struct {
	RunID      string
	TradeID    string
	Symbol     string
	Strategy   string
	Quantity   int
	CostBasis  float64
	Proceeds   float64
	OpenTime   time.Time
	CloseTime  time.Time
	RealizedPL float64
	Reason     string
}

// EquitySnapshot is the end-of-day mark of the simulated account.
type EquitySnapshot struct {
	RunID     string
	Time      time.Time
	Cash      float64
	Equity    float64
	DailyPL   float64
	Positions int
}

type Journal interface {
	RecordFill(FillRecord) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Multi fans every record out to each journal in order and stops at the
// first error.
type Multi []Journal

func (m Multi) RecordFill(r FillRecord) error {
	for _, j := range m {
		if err := j.RecordFill(r); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) RecordTrade(r TradeRecord) error {
	for _, j := range m {
		if err := j.RecordTrade(r); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) RecordEquity(e EquitySnapshot) error {
	for _, j := range m {
		if err := j.RecordEquity(e); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Close() error {
	var first error
	for _, j := range m {
		if err := j.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
