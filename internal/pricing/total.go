package pricing

import "github.com/AnhTuan1407/shopsphere-fe-sub001/internal/domain"

// Total sums EffectivePrice × Quantity over the selected lines.
func Total(lines []DisplayLine) domain.Money {
	var total domain.Money
	for _, l := range lines {
		if l.Selected {
			total += l.LineTotal()
		}
	}
	return total
}

// Summary is the cart footer.
type Summary struct {
	Total            domain.Money
	Savings          domain.Money
	SelectedLines    int
	SelectedQuantity int
	LineCount        int
	AllSelected      bool
}

// Summarize computes the footer over lines. AllSelected is false for an
// empty cart.
func Summarize(lines []DisplayLine) Summary {
	s := Summary{LineCount: len(lines), Total: Total(lines)}
	for _, l := range lines {
		if !l.Selected {
			continue
		}
		s.SelectedLines++
		s.SelectedQuantity += l.Quantity
		s.Savings += l.Savings()
	}
	s.AllSelected = s.LineCount > 0 && s.SelectedLines == s.LineCount
	return s
}
