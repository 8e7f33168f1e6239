package ledger

// Document is the aggregate persisted as one blob in the document store.
type Document struct {
	Components []Component  `json:"components"`
	Versions   []Version    `json:"versions"`
	Setups     []Setup      `json:"setups"`
	Tests      []TestResult `json:"tests"`
}

// Component is a named, independently versioned unit of software.
type Component struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Setup is a named set of components that form a testable configuration.
// ComponentIDs is kept sorted.
type Setup struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ComponentIDs []string `json:"componentIds"`
}

// Version records a released tag of a component.
type Version struct {
	ComponentID string `json:"componentId"`
	Tag         string `json:"tag"`
	Date        int64  `json:"date"` // Unix milliseconds
}

// TestResult records the outcome of a setup run against specific component versions.
type TestResult struct {
	SetupID             string            `json:"setupId"`
	Status              string            `json:"status"`
	ComponentVersionMap map[string]string `json:"componentVersionMap"`
	Description         string            `json:"description,omitempty"`
	Date                int64             `json:"date"` // Unix milliseconds
}

// NewDocument returns a document with empty (non-nil) collections.
func NewDocument() *Document {
	return &Document{
		Components: []Component{},
		Versions:   []Version{},
		Setups:     []Setup{},
		Tests:      []TestResult{},
	}
}

// Clone returns a copy of d that shares no slices or maps with it.
func (d *Document) Clone() *Document {
	c := &Document{
		Components: append([]Component{}, d.Components...),
		Versions:   append([]Version{}, d.Versions...),
		Setups:     make([]Setup, len(d.Setups)),
		Tests:      make([]TestResult, len(d.Tests)),
	}
	for i, s := range d.Setups {
		s.ComponentIDs = append([]string{}, s.ComponentIDs...)
		c.Setups[i] = s
	}
	for i, t := range d.Tests {
		m := make(map[string]string, len(t.ComponentVersionMap))
		for k, v := range t.ComponentVersionMap {
			m[k] = v
		}
		t.ComponentVersionMap = m
		c.Tests[i] = t
	}
	return c
}

// Component returns the component with the given id.
func (d *Document) Component(id string) (Component, bool) {
	for _, c := range d.Components {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}

// Setup returns the setup with the given id.
func (d *Document) Setup(id string) (Setup, bool) {
	for _, s := range d.Setups {
		if s.ID == id {
			return s, true
		}
	}
	return Setup{}, false
}

// FindVersion returns the first recorded version matching componentID and tag.
func (d *Document) FindVersion(componentID, tag string) (Version, bool) {
	for _, v := range d.Versions {
		if v.ComponentID == componentID && v.Tag == tag {
			return v, true
		}
	}
	return Version{}, false
}
