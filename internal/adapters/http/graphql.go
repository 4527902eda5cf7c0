package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services. Field names
// follow the JSON tags of the domain types so the default resolver applies.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	levelType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Level",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.Int},
			"name":          &graphql.Field{Type: graphql.String},
			"target":        &graphql.Field{Type: geoPointType},
			"radius_meters": &graphql.Field{Type: graphql.Float},
		},
	})

	progressType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlayerProgress",
		Fields: graphql.Fields{
			"player_id":    &graphql.Field{Type: graphql.String},
			"unlocked":     &graphql.Field{Type: graphql.NewList(graphql.Int)},
			"total_levels": &graphql.Field{Type: graphql.Int},
		},
	})

	challengeProgressType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ChallengeProgress",
		Fields: graphql.Fields{
			"captured":  &graphql.Field{Type: graphql.Int},
			"total":     &graphql.Field{Type: graphql.Int},
			"completed": &graphql.Field{Type: graphql.Boolean},
		},
	})

	orientationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Orientation",
		Fields: graphql.Fields{
			"heading": &graphql.Field{Type: graphql.Float},
			"pitch":   &graphql.Field{Type: graphql.Float},
		},
	})

	projectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Projection",
		Fields: graphql.Fields{
			"target_id": &graphql.Field{Type: graphql.String},
			"x":         &graphql.Field{Type: graphql.Float},
			"y":         &graphql.Field{Type: graphql.Float},
			"in_view":   &graphql.Field{Type: graphql.Boolean},
			"fallback":  &graphql.Field{Type: graphql.Boolean},
		},
	})

	frameType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Challenge",
		Fields: graphql.Fields{
			"session_id":         &graphql.Field{Type: graphql.String},
			"level_id":           &graphql.Field{Type: graphql.Int},
			"progress":           &graphql.Field{Type: challengeProgressType},
			"orientation":        &graphql.Field{Type: orientationType},
			"orientation_active": &graphql.Field{Type: graphql.Boolean},
			"capability":         &graphql.Field{Type: graphql.String},
			"permission":         &graphql.Field{Type: graphql.String},
			"camera_active":      &graphql.Field{Type: graphql.Boolean},
			"targets":            &graphql.Field{Type: graphql.NewList(projectionType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"levels": &graphql.Field{
				Type:        graphql.NewList(levelType),
				Description: "All levels of the hunt",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Levels.List(p.Context)
				},
			},
			"level": &graphql.Field{
				Type:        levelType,
				Description: "Get a level by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Levels.Get(p.Context, p.Args["id"].(int))
				},
			},
			"progress": &graphql.Field{
				Type:        progressType,
				Description: "Levels a player has unlocked",
				Args: graphql.FieldConfigArgument{
					"playerId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Progression.Progress(p.Context, p.Args["playerId"].(string))
				},
			},
			"challenge": &graphql.Field{
				Type:        frameType,
				Description: "Current frame of a live AR challenge",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Challenges.View(p.Context, p.Args["id"].(string))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
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
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
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
