package core

// CategoryAmount represents an expense total aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summary holds the dashboard aggregates for one user's ledger.
type Summary struct {
	TotalIncome  Money
	TotalExpense Money
	NetBalance   Money
	Breakdown    []CategoryAmount
}

// Summarize folds entries into totals and a per-category expense breakdown.
// Income entries contribute to TotalIncome only and never enter the
// breakdown. Categories appear in first-seen order, so the same entry list
// always renders the same chart.
func Summarize(entries []Entry) Summary {
	var s Summary
	index := make(map[string]int)
	for _, e := range entries {
		switch e.Kind {
		case Income:
			s.TotalIncome.Cents += e.Amount.Cents
		case Expense:
			s.TotalExpense.Cents += e.Amount.Cents
			if i, ok := index[e.Category]; ok {
				s.Breakdown[i].Amount.Cents += e.Amount.Cents
			} else {
				index[e.Category] = len(s.Breakdown)
				s.Breakdown = append(s.Breakdown, CategoryAmount{Name: e.Category, Amount: e.Amount})
			}
		}
	}
	s.NetBalance = Money{Cents: s.TotalIncome.Cents - s.TotalExpense.Cents}
	return s
}

// ChartLabels returns the breakdown category names, index-aligned with
// ChartValues.
func (s Summary) ChartLabels() []string {
	labels := make([]string, len(s.Breakdown))
	for i, c := range s.Breakdown {
		labels[i] = c.Name
	}
	return labels
}

// ChartValues returns the breakdown amounts in whole currency units,
// index-aligned with ChartLabels.
func (s Summary) ChartValues() []float64 {
	values := make([]float64, len(s.Breakdown))
	for i, c := range s.Breakdown {
		values[i] = c.Amount.Amount()
	}
	return values
}
