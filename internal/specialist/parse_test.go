package specialist

import (
	"testing"
	"time"
)

func TestParseAmountPaise(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want int64
		ok   bool
	}{
		{name: "rupee symbol", text: "send ₹500 to ravi", want: 50_000, ok: true},
		{name: "rs with separators", text: "transfer Rs. 1,200.50 today", want: 120_050, ok: true},
		{name: "amount before unit", text: "pay 500 rupees", want: 50_000, ok: true},
		{name: "hindi unit", text: "500 रुपये भेजो", want: 50_000, ok: true},
		{name: "inr prefix", text: "inr 250", want: 25_000, ok: true},
		{name: "single decimal digit", text: "₹1.5", want: 150, ok: true},
		{name: "no currency marker", text: "send 500 to ravi", ok: false},
		{name: "rs inside a word", text: "my fingers 500 hurt", ok: false},
		{name: "no amount at all", text: "send money to ravi", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseAmountPaise(tt.text)
			if ok != tt.ok {
				t.Fatalf("parseAmountPaise(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("parseAmountPaise(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseAnyAmountPaise(t *testing.T) {
	t.Parallel()

	if got, ok := parseAnyAmountPaise("pay 500 to ravi@upi"); !ok || got != 50_000 {
		t.Errorf("parseAnyAmountPaise(bare number) = %d, %v; want 50000, true", got, ok)
	}
	if _, ok := parseAnyAmountPaise("no numbers here"); ok {
		t.Error("parseAnyAmountPaise(no digits) ok = true, want false")
	}
}

func TestParsePayee(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{name: "vpa", text: "send ₹500 to ravi@upi", want: "ravi@upi", ok: true},
		{name: "vpa with dots", text: "pay Ramesh.k@okaxis 200", want: "ramesh.k@okaxis", ok: true},
		{name: "name after to", text: "send 500 to Ravi", want: "Ravi", ok: true},
		{name: "hindi ko form", text: "रवि को 500 भेजो", want: "रवि", ok: true},
		{name: "romanized ko form", text: "ravi ko 500 bhejo", want: "ravi", ok: true},
		{name: "stop word after to", text: "I want to check my balance", ok: false},
		{name: "nothing to find", text: "transfer 500", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parsePayee(tt.text)
			if ok != tt.ok {
				t.Fatalf("parsePayee(%q) ok = %v, want %v", tt.text, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("parsePayee(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestFormatRupees(t *testing.T) {
	t.Parallel()

	tests := []struct {
		paise int64
		want  string
	}{
		{paise: 50_000, want: "₹500.00"},
		{paise: 120_050, want: "₹1,200.50"},
		{paise: 12_345_678, want: "₹1,23,456.78"},
		{paise: 100_000_000, want: "₹10,00,000.00"},
		{paise: 99, want: "₹0.99"},
		{paise: 0, want: "₹0.00"},
	}

	for _, tt := range tests {
		if got := formatRupees(tt.paise); got != tt.want {
			t.Errorf("formatRupees(%d) = %q, want %q", tt.paise, got, tt.want)
		}
	}
}

func TestParseDueTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 22, 10, 0, 0, 0, istZone)

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{
			name: "tomorrow",
			text: "remind me to pay rent tomorrow",
			want: time.Date(2026, time.August, 23, 9, 0, 0, 0, istZone),
		},
		{
			name: "today slides past the morning slot",
			text: "remind me today",
			want: time.Date(2026, time.August, 22, 21, 0, 0, 0, istZone),
		},
		{
			name: "kal",
			text: "kal bijli bill yaad dilana",
			want: time.Date(2026, time.August, 23, 9, 0, 0, 0, istZone),
		},
		{
			name: "parso",
			text: "परसों याद दिलाना",
			want: time.Date(2026, time.August, 24, 9, 0, 0, 0, istZone),
		},
		{
			name: "in n days",
			text: "remind me in 3 days",
			want: time.Date(2026, time.August, 25, 9, 0, 0, 0, istZone),
		},
		{
			name: "next week",
			text: "remind me next week",
			want: time.Date(2026, time.August, 29, 9, 0, 0, 0, istZone),
		},
		{
			name: "default is tomorrow morning",
			text: "remind me to pay rent",
			want: time.Date(2026, time.August, 23, 9, 0, 0, 0, istZone),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseDueTime(tt.text, now)
			if !got.Equal(tt.want) {
				t.Errorf("parseDueTime(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestConfirmationAndCancellation(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"confirm", "yes please", "haan", "हाँ", "theek hai, pakka"} {
		if !isConfirmation(text) {
			t.Errorf("isConfirmation(%q) = false, want true", text)
		}
	}
	for _, text := range []string{"cancel it", "nahi bhejna hai", "रद्द करो", "no"} {
		if !isCancellation(text) {
			t.Errorf("isCancellation(%q) = false, want true", text)
		}
	}
	// Negations outrank stray affirmative tokens.
	if isConfirmation("know more") || isCancellation("know more") {
		t.Error("substring of an unrelated word matched a token")
	}
}

func TestReminderTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want string
	}{
		{text: "Remind me to pay electricity bill tomorrow", want: "pay electricity bill"},
		{text: "remind me rent", want: "rent"},
		{text: "मुझे कल बिजली का बिल भरना याद दिलाना", want: "कल बिजली का बिल भरना"},
		{text: "remind me to tomorrow", want: "Payment reminder"},
	}

	for _, tt := range tests {
		if got := reminderTitle(tt.text); got != tt.want {
			t.Errorf("reminderTitle(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestStatementPeriod(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 22, 10, 0, 0, 0, istZone)

	from, to := statementPeriod("email my statement for last month", now)
	if from.Format("2006-01-02") != "2026-07-01" || to.Format("2006-01-02") != "2026-07-31" {
		t.Errorf("last month period = %s to %s, want 2026-07-01 to 2026-07-31",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	from, to = statementPeriod("email my statement", now)
	if from.Format("2006-01-02") != "2026-07-23" || to.Format("2006-01-02") != "2026-08-22" {
		t.Errorf("default period = %s to %s, want 2026-07-23 to 2026-08-22",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
}
