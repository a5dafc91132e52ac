package domain

import "fmt"

// ThemeRoles is every color role a complete palette must define.
var ThemeRoles = []string{
	"bg", "water", "parks", "text", "gradient_color",
	"road_motorway", "road_primary", "road_secondary", "road_tertiary",
	"road_residential", "road_default",
	"rail_heavy", "rail_light", "rail_special", "rail_service", "rail_default",
}

// Theme maps color roles to hex colors. Supplied externally (embedded file
// or themes directory) and read-only to the pipeline.
type Theme struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Colors      map[string]string `json:"colors"`
}

// Color returns the hex color for a role, falling back to the background
// color for roles the palette does not define.
func (t Theme) Color(role string) string {
	if c, ok := t.Colors[role]; ok {
		return c
	}
	return t.Colors["bg"]
}

// Validate checks that the palette defines every required role.
func (t Theme) Validate() error {
	var missing []string
	for _, role := range ThemeRoles {
		if _, ok := t.Colors[role]; !ok {
			missing = append(missing, role)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("theme %q missing roles: %v", t.Name, missing)
	}
	return nil
}
