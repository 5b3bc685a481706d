package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/geodrop/internal/core/domain"
)

// idField exposes an int64 id as a string; GraphQL Int is 32-bit.
func idField(get func(src any) (int64, bool)) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewNonNull(graphql.ID),
		Resolve: func(p graphql.ResolveParams) (any, error) {
			if id, ok := get(p.Source); ok {
				return strconv.FormatInt(id, 10), nil
			}
			return nil, nil
		},
	}
}

// argID parses an ID argument. A malformed id resolves to 0, which the
// services treat as unknown.
func argID(p graphql.ResolveParams) int64 {
	raw, _ := p.Args["id"].(string)
	id, _ := strconv.ParseInt(raw, 10, 64)
	return id
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	offerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Offer",
		Fields: graphql.Fields{
			"id": idField(func(src any) (int64, bool) {
				switch o := src.(type) {
				case *domain.Offer:
					return o.ID, true
				case domain.Offer:
					return o.ID, true
				}
				return 0, false
			}),
			"location":         &graphql.Field{Type: geoPointType},
			"quantity":         &graphql.Field{Type: graphql.Int},
			"price":            &graphql.Field{Type: graphql.Float},
			"discount":         &graphql.Field{Type: graphql.Float},
			"new_price":        &graphql.Field{Type: graphql.Float},
			"category":         &graphql.Field{Type: graphql.String},
			"product":          &graphql.Field{Type: graphql.String},
			"description":      &graphql.Field{Type: graphql.String},
			"creator":          &graphql.Field{Type: graphql.String},
			"photo_ref":        &graphql.Field{Type: graphql.String},
			"logo_ref":         &graphql.Field{Type: graphql.String},
			"validity_minutes": &graphql.Field{Type: graphql.Int},
			"expires_at":       &graphql.Field{Type: graphql.DateTime},
			"created_at":       &graphql.Field{Type: graphql.DateTime},
			"distance":         &graphql.Field{Type: graphql.Float},
		},
	})

	noteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Note",
		Fields: graphql.Fields{
			"id": idField(func(src any) (int64, bool) {
				switch n := src.(type) {
				case *domain.Note:
					return n.ID, true
				case domain.Note:
					return n.ID, true
				}
				return 0, false
			}),
			"location":   &graphql.Field{Type: geoPointType},
			"content":    &graphql.Field{Type: graphql.String},
			"expires_at": &graphql.Field{Type: graphql.DateTime},
			"created_at": &graphql.Field{Type: graphql.DateTime},
			"distance":   &graphql.Field{Type: graphql.Float},
		},
	})

	claimResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ClaimResult",
		Fields: graphql.Fields{
			"offer_id": idField(func(src any) (int64, bool) {
				r, ok := src.(domain.ClaimResult)
				return r.OfferID, ok
			}),
			"remaining_quantity": &graphql.Field{Type: graphql.Int},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"offer": &graphql.Field{
				Type:        offerType,
				Description: "Get an offer by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return deps.Offers.GetByID(p.Context, argID(p))
				},
			},
			"offersNearby": &graphql.Field{
				Type:        graphql.NewList(offerType),
				Description: "Live offers within radius meters of a point",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: domain.DefaultOfferRadius},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radius := p.Args["radius"].(float64)
					return deps.Offers.FindNearby(p.Context, lat, lon, radius)
				},
			},
			"notesNearby": &graphql.Field{
				Type:        graphql.NewList(noteType),
				Description: "Live notes within 500 m of a point",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					return deps.Notes.FindNearby(p.Context, lat, lon)
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"claimOffer": &graphql.Field{
				Type:        claimResultType,
				Description: "Take one unit of an offer",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return deps.Offers.Claim(p.Context, argID(p))
				},
			},
			"createNote": &graphql.Field{
				Type:        noteType,
				Description: "Post a note that expires after 15 minutes",
				Args: graphql.FieldConfigArgument{
					"content": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					content := p.Args["content"].(string)
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					return deps.Notes.Create(p.Context, content, lat, lon)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
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
