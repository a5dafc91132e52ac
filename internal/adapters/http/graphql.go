package http

import (
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	paletteEntryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PaletteEntry",
		Fields: graphql.Fields{
			"role": &graphql.Field{Type: graphql.String},
			"hex":  &graphql.Field{Type: graphql.String},
		},
	})

	themeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Theme",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"palette": &graphql.Field{
				Type: graphql.NewList(paletteEntryType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					theme, ok := p.Source.(*domain.Theme)
					if !ok {
						return nil, nil
					}
					roles := make([]string, 0, len(theme.Colors))
					for role := range theme.Colors {
						roles = append(roles, role)
					}
					sort.Strings(roles)

					out := make([]map[string]interface{}, 0, len(roles))
					for _, role := range roles {
						out = append(out, map[string]interface{}{
							"role": role,
							"hex":  theme.Colors[role],
						})
					}
					return out, nil
				},
			},
		},
	})

	geocodeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeocodeResult",
		Fields: graphql.Fields{
			"city":    &graphql.Field{Type: graphql.String},
			"country": &graphql.Field{Type: graphql.String},
			"lat":     &graphql.Field{Type: graphql.Float},
			"lon":     &graphql.Field{Type: graphql.Float},
		},
	})

	jobType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Job",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"state":      &graphql.Field{Type: graphql.String},
			"stage":      &graphql.Field{Type: graphql.String},
			"file":       &graphql.Field{Type: graphql.String},
			"url":        &graphql.Field{Type: graphql.String},
			"error":      &graphql.Field{Type: graphql.String},
			"updated_at": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"themes": &graphql.Field{
				Type:        graphql.NewList(themeType),
				Description: "List all poster themes",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return loadAllThemes(deps)
				},
			},
			"theme": &graphql.Field{
				Type:        themeType,
				Description: "Get a theme by name",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					name := p.Args["name"].(string)
					return deps.Themes.Load(name)
				},
			},
			"geocode": &graphql.Field{
				Type:        geocodeType,
				Description: "Resolve a place name to coordinates",
				Args: graphql.FieldConfigArgument{
					"city":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"country": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					city := p.Args["city"].(string)
					country := p.Args["country"].(string)
					point, err := deps.Geocoder.Resolve(p.Context, city, country)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"city":    city,
						"country": country,
						"lat":     point.Lat,
						"lon":     point.Lon,
					}, nil
				},
			},
			"job": &graphql.Field{
				Type:        jobType,
				Description: "Status of a render job",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					status, err := deps.Jobs.Status(p.Context, id)
					if err != nil {
						return nil, err
					}
					m := map[string]interface{}{
						"id":         status.ID,
						"state":      string(status.State),
						"stage":      string(status.Stage),
						"error":      status.Error,
						"updated_at": status.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
					}
					if status.File != "" {
						m["file"] = status.File
						m["url"] = fileURL(status.File)
					}
					return m, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// loadAllThemes materializes every available theme.
func loadAllThemes(deps *Dependencies) ([]*domain.Theme, error) {
	names, err := deps.Themes.Available()
	if err != nil {
		return nil, err
	}
	themes := make([]*domain.Theme, 0, len(names))
	for _, name := range names {
		t, err := deps.Themes.Load(name)
		if err != nil {
			return nil, err
		}
		themes = append(themes, t)
	}
	return themes, nil
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
