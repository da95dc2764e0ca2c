package core

import "testing"

func entry(kind Kind, title, category string, cents int64) Entry {
	return Entry{
		Title:    title,
		Amount:   Money{Cents: cents},
		Category: category,
		Kind:     kind,
		Date:     NewDate(2026, 1, 15),
	}
}

func TestSummarizeTotals(t *testing.T) {
	entries := []Entry{
		entry(Expense, "Coffee", "Food", 450),
		entry(Income, "Salary", "Job", 200000),
	}
	s := Summarize(entries)
	if s.TotalIncome.Cents != 200000 {
		t.Fatalf("income: expected 200000, got %d", s.TotalIncome.Cents)
	}
	if s.TotalExpense.Cents != 450 {
		t.Fatalf("expense: expected 450, got %d", s.TotalExpense.Cents)
	}
	if s.NetBalance.Cents != 199550 {
		t.Fatalf("net: expected 199550, got %d", s.NetBalance.Cents)
	}
	if len(s.Breakdown) != 1 || s.Breakdown[0].Name != "Food" || s.Breakdown[0].Amount.Cents != 450 {
		t.Fatalf("breakdown: expected [Food 450], got %+v", s.Breakdown)
	}
}

func TestSummarizeNegativeNet(t *testing.T) {
	s := Summarize([]Entry{entry(Expense, "Rent", "Housing", 90000)})
	if s.NetBalance.Cents != -90000 {
		t.Fatalf("expected -90000, got %d", s.NetBalance.Cents)
	}
}

func TestSummarizeBreakdownOrder(t *testing.T) {
	entries := []Entry{
		entry(Expense, "Coffee", "Food", 300),
		entry(Expense, "Bus", "Transport", 250),
		entry(Income, "Salary", "Job", 100000), // income never enters the breakdown
		entry(Expense, "Lunch", "Food", 1200),
	}
	s := Summarize(entries)
	if len(s.Breakdown) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(s.Breakdown))
	}
	if s.Breakdown[0].Name != "Food" || s.Breakdown[0].Amount.Cents != 1500 {
		t.Fatalf("expected Food 1500 first, got %+v", s.Breakdown[0])
	}
	if s.Breakdown[1].Name != "Transport" || s.Breakdown[1].Amount.Cents != 250 {
		t.Fatalf("expected Transport 250 second, got %+v", s.Breakdown[1])
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalIncome.Cents != 0 || s.TotalExpense.Cents != 0 || s.NetBalance.Cents != 0 {
		t.Fatalf("expected zero totals, got %+v", s)
	}
	if len(s.Breakdown) != 0 {
		t.Fatalf("expected empty breakdown, got %+v", s.Breakdown)
	}
}

func TestChartPairs(t *testing.T) {
	s := Summarize([]Entry{
		entry(Expense, "Coffee", "Food", 450),
		entry(Expense, "Bus", "Transport", 250),
	})
	labels := s.ChartLabels()
	values := s.ChartValues()
	if len(labels) != len(values) {
		t.Fatalf("labels/values length mismatch: %d vs %d", len(labels), len(values))
	}
	if labels[0] != "Food" || values[0] != 4.5 {
		t.Fatalf("expected Food/4.5, got %s/%v", labels[0], values[0])
	}
	if labels[1] != "Transport" || values[1] != 2.5 {
		t.Fatalf("expected Transport/2.5, got %s/%v", labels[1], values[1])
	}
}
