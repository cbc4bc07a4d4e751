package ibba

// Selectors are the CSS selectors for the listing and profile page shapes.
type Selectors struct {
	// Listing page
	ListingContent string
	Listings       string
	ListingHeading string
	BrokerBlock    string
	BlockLink      string
	BlockName      string

	// Profile page
	ProfileImage   string
	ProfileInfo    string
	ProfileName    string
	CBIBadge       string
	MemberDate     string
	PhoneBlock     string
	City           string
	Address        string
	WebsiteLinks   string
	SpecialityList string
}

// DefaultSelectors match the live directory markup.
func DefaultSelectors() Selectors {
	return Selectors{
		ListingContent: "#content",
		Listings:       ".broker-listings",
		ListingHeading: "h2",
		BrokerBlock:    ".broker-block",
		BlockLink:      "a",
		BlockName:      "h3",

		ProfileImage:   ".profile-image img",
		ProfileInfo:    ".profile-information",
		ProfileName:    "h1",
		CBIBadge:       "span.top-cbi",
		MemberDate:     ".member-date",
		PhoneBlock:     ".left-phone",
		City:           ".left-city",
		Address:        ".left-address",
		WebsiteLinks:   ".left-link a",
		SpecialityList: ".speciality ul",
	}
}
