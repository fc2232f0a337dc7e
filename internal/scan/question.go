package scan

// Question is the ownership interview to present after a scan. It is a
// sealed union over (isNewFingerprint, uniqueObserverCountBefore): a
// returning device is never asked again, and after three unique observers
// the interview stops.
type Question interface {
	// Type returns the wire identifier for the question variant.
	Type() string
	question()
}

// FirstScanQuestion asks the first unique observer whether they are the
// original owner.
type FirstScanQuestion struct{}

func (FirstScanQuestion) Type() string { return "first_scan" }
func (FirstScanQuestion) question()    {}

// Prompt returns the display text and binary options.
func (FirstScanQuestion) Prompt() (string, []string) {
	return "Are you the first owner of this product?", []string{"yes", "no"}
}

// SecondScanQuestion asks the second unique observer whether the product is
// second-hand and where it came from.
type SecondScanQuestion struct{}

func (SecondScanQuestion) Type() string { return "second_scan" }
func (SecondScanQuestion) question()    {}

// Prompt returns the display text and acquisition options.
func (SecondScanQuestion) Prompt() (string, []string) {
	return "Is this product second-hand? Where did you get it?", []string{
		"i_am_first_owner",
		"bought_second_hand",
		"received_as_gift",
		"other",
	}
}

// ThirdScanQuestion asks the third unique observer an open-ended
// acquisition-channel question.
type ThirdScanQuestion struct{}

func (ThirdScanQuestion) Type() string { return "third_scan" }
func (ThirdScanQuestion) question()    {}

// Prompt returns the display text; the answer is free text.
func (ThirdScanQuestion) Prompt() string {
	return "How did you acquire this product?"
}

// NoQuestion means no interview applies: either the device has scanned
// before, or three unique observers have already been interviewed.
type NoQuestion struct{}

func (NoQuestion) Type() string { return "no_question" }
func (NoQuestion) question()    {}

// questionFor selects the interview variant. Only a new fingerprint is ever
// asked; the variant depends on how many unique observers came before it.
func questionFor(isNewFingerprint bool, uniqueObserversBefore int) Question {
	if !isNewFingerprint {
		return NoQuestion{}
	}
	switch uniqueObserversBefore {
	case 0:
		return FirstScanQuestion{}
	case 1:
		return SecondScanQuestion{}
	case 2:
		return ThirdScanQuestion{}
	default:
		return NoQuestion{}
	}
}
