package timeutil

import "testing"

func TestValidateAcceptsLiteralExample(t *testing.T) {
	if err := Validate("2018-02-19T20:06:25.317Z"); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestValidateRejectsWrongSeparator(t *testing.T) {
	if err := Validate("2016-04-26X08:06:25.317Z"); err == nil {
		t.Fatal("expected error for wrong separator at the 'T' position")
	}
}

func TestValidateRejectsWrongLength(t *testing.T) {
	if err := Validate("2016-04-26T08:06:25.31"); err == nil {
		t.Fatal("expected error for a timestamp shorter than 24 characters")
	}
}

func TestValidateRejectsOutOfRangeHour(t *testing.T) {
	if err := Validate("2016-04-26T25:06:25.317Z"); err == nil {
		t.Fatal("expected error for hour 25")
	}
}

func TestValidateRejectsZeroMonthOrDay(t *testing.T) {
	if err := Validate("2016-00-26T08:06:25.317Z"); err == nil {
		t.Fatal("expected error for month 0")
	}
	if err := Validate("2016-04-00T08:06:25.317Z"); err == nil {
		t.Fatal("expected error for day 0")
	}
}

func TestValidateAllowsZeroHourMinuteSecondMillisecond(t *testing.T) {
	if err := Validate("2016-04-26T00:00:00.000Z"); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestFormatProducesValidatableTimestamp(t *testing.T) {
	parsed, err := Parse("2018-02-19T20:06:25.317Z")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	formatted := Format(parsed)
	if err := Validate(formatted); err != nil {
		t.Fatalf("round-tripped timestamp failed validation: %v", err)
	}
}
