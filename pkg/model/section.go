package model

// Section is a named block of code text. Mandatory sections are emitted in
// every generated artifact, in slice order.
type Section struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Code        string `json:"code" yaml:"code"`
	IsMandatory bool   `json:"isMandatory" yaml:"isMandatory"`
}

// FindSection returns the first section with the given id.
func FindSection(sections []Section, id string) (Section, bool) {
	for _, section := range sections {
		if section.ID == id {
			return section, true
		}
	}
	return Section{}, false
}

// Branding carries the images shown around the wizard. Values are either
// URLs or inline SVG markup; renderers sanitise them before output.
type Branding struct {
	Title        string `json:"title,omitempty" yaml:"title,omitempty"`
	BannerImage  string `json:"bannerImage,omitempty" yaml:"bannerImage,omitempty"`
	ScannerImage string `json:"scannerImage,omitempty" yaml:"scannerImage,omitempty"`
}

// Bundle groups everything an administrator configures for one template.
type Bundle struct {
	Branding  Branding  `json:"branding" yaml:"branding"`
	Sections  []Section `json:"sections" yaml:"sections"`
	Questions Questions `json:"questions" yaml:"questions"`
}
