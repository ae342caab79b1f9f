package email

import (
	"strings"
	"testing"
)

func TestRenderReminderTemplate(t *testing.T) {
	content, err := renderEmailTemplate("reminder.html", reminderEmailData{
		baseEmailData: baseEmailData{
			Title:   "Herinnering: uw afspraak",
			Heading: "Uw afspraak komt eraan",
		},
		TeamName:        "Installatiebedrijf Jansen",
		JobTitle:        "CV-ketel onderhoud",
		AppointmentTime: "02-09-2026 om 09:30",
		CompanyPhone:    "+31101234567",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Installatiebedrijf Jansen", "CV-ketel onderhoud", "02-09-2026 om 09:30", "+31101234567"} {
		if !strings.Contains(content, want) {
			t.Fatalf("rendered template missing %q", want)
		}
	}
}

func TestRenderReminderTemplateOmitsEmptyPhone(t *testing.T) {
	content, err := renderEmailTemplate("reminder.html", reminderEmailData{
		baseEmailData:   baseEmailData{Title: "t", Heading: "h"},
		TeamName:        "Jansen",
		JobTitle:        "Onderhoud",
		AppointmentTime: "02-09-2026 om 09:30",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(content, "Bel ons op") {
		t.Fatal("phone paragraph should be omitted without a number")
	}
}

func TestRenderConfirmationTemplate(t *testing.T) {
	content, err := renderEmailTemplate("confirmation.html", confirmationEmailData{
		baseEmailData:   baseEmailData{Title: "t", Heading: "h"},
		TeamName:        "Jansen",
		JobTitle:        "Onderhoud",
		AppointmentTime: "02-09-2026 om 09:30",
		Address:         "Keizersgracht 1, Amsterdam",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(content, "Keizersgracht 1, Amsterdam") {
		t.Fatal("rendered template missing address")
	}
}
