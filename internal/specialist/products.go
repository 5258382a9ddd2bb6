package specialist

import (
	"context"
	"strings"

	"github.com/vaanihq/vaani/internal/assistant"
)

// Static product catalogs. Rates mirror the published rate card; the
// knowledge specialist handles anything that needs real retrieval.
var loanCatalog = []struct {
	item     map[string]any
	keywords []string
}{
	{
		item: map[string]any{
			"name": "Personal Loan", "rate": "10.5% p.a.",
			"tenure": "up to 5 years", "maxAmount": "₹25,00,000",
		},
		keywords: []string{"personal", "पर्सनल", "निजी"},
	},
	{
		item: map[string]any{
			"name": "Home Loan", "rate": "8.4% p.a.",
			"tenure": "up to 30 years", "maxAmount": "₹5,00,00,000",
		},
		keywords: []string{"home", "house", "होम", "घर", "मकान"},
	},
	{
		item: map[string]any{
			"name": "Car Loan", "rate": "9.2% p.a.",
			"tenure": "up to 7 years", "maxAmount": "₹1,00,00,000",
		},
		keywords: []string{"car", "vehicle", "कार", "गाड़ी"},
	},
	{
		item: map[string]any{
			"name": "Gold Loan", "rate": "9.0% p.a.",
			"tenure": "up to 3 years", "maxAmount": "₹50,00,000",
		},
		keywords: []string{"gold", "गोल्ड", "सोना", "सोने"},
	},
}

var investmentCatalog = []struct {
	item     map[string]any
	keywords []string
}{
	{
		item: map[string]any{
			"name": "Fixed Deposit", "rate": "7.1% p.a.",
			"tenure": "1 to 5 years", "minAmount": "₹5,000",
		},
		keywords: []string{"fixed", "fd", "एफडी", "फिक्स्ड"},
	},
	{
		item: map[string]any{
			"name": "Recurring Deposit", "rate": "6.8% p.a.",
			"tenure": "6 months to 10 years", "minAmount": "₹500 per month",
		},
		keywords: []string{"recurring", "rd", "आरडी"},
	},
	{
		item: map[string]any{
			"name": "Public Provident Fund", "rate": "7.1% p.a.",
			"tenure": "15 years", "minAmount": "₹500 per year",
		},
		keywords: []string{"ppf", "provident", "पीपीएफ"},
	},
	{
		item: map[string]any{
			"name": "Mutual Fund SIP", "rate": "market linked",
			"tenure": "open ended", "minAmount": "₹500 per month",
		},
		keywords: []string{"mutual", "sip", "म्यूचुअल", "एसआईपी"},
	},
}

// NewLoansSpecialist returns the handler for loan product questions.
func NewLoansSpecialist(deps Deps) assistant.SpecialistFunc {
	return loansSpecialist{deps}.Handle
}

type loansSpecialist struct {
	deps Deps
}

func (h loansSpecialist) Handle(ctx context.Context, st *assistant.State) (*assistant.Partial, error) {
	products := matchCatalog(loanCatalog, strings.ToLower(st.CurrentMessage()))

	return &assistant.Partial{
		Reply: pick(st.Language,
			"Here are the loan options that fit. Personal loans start at 10.5% and home loans at 8.4% per annum. Want me to raise a callback from a loan officer?",
			"आपके लिए लोन विकल्प कार्ड में हैं। पर्सनल लोन 10.5% और होम लोन 8.4% सालाना से शुरू होते हैं। क्या लोन अधिकारी से कॉल करवाऊं?",
		),
		StructuredData: assistant.NewStructuredData(assistant.TypeLoan, map[string]any{
			"products": products,
			"count":    len(products),
		}),
	}, nil
}

// NewInvestmentsSpecialist returns the handler for deposit and
// investment product questions.
func NewInvestmentsSpecialist(deps Deps) assistant.SpecialistFunc {
	return investmentsSpecialist{deps}.Handle
}

type investmentsSpecialist struct {
	deps Deps
}

func (h investmentsSpecialist) Handle(ctx context.Context, st *assistant.State) (*assistant.Partial, error) {
	products := matchCatalog(investmentCatalog, strings.ToLower(st.CurrentMessage()))

	return &assistant.Partial{
		Reply: pick(st.Language,
			"Here are the matching investment options. Fixed deposits currently earn up to 7.1% per annum. Shall I share the detailed rate card?",
			"निवेश विकल्प कार्ड में हैं। एफडी पर अभी 7.1% सालाना तक ब्याज मिलता है। क्या विस्तृत दरें भेजूं?",
		),
		StructuredData: assistant.NewStructuredData(assistant.TypeInvestment, map[string]any{
			"products": products,
			"count":    len(products),
		}),
	}, nil
}

// matchCatalog narrows a catalog to products the message mentions and
// falls back to the full list when nothing matches.
func matchCatalog(catalog []struct {
	item     map[string]any
	keywords []string
}, lower string) []map[string]any {
	var matched []map[string]any
	for _, p := range catalog {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, p.item)
				break
			}
		}
	}
	if len(matched) > 0 {
		return matched
	}
	all := make([]map[string]any, 0, len(catalog))
	for _, p := range catalog {
		all = append(all, p.item)
	}
	return all
}
