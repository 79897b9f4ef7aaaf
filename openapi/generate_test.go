package openapi

import (
	"testing"

	"github.com/oattyio/oatty/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreDoc = `{
  "openapi": "3.0.3",
  "info": {"title": "Petstore", "version": "1.0.0"},
  "servers": [{"url": "https://api.example.com"}],
  "paths": {
    "/pets": {
      "get": {
        "operationId": "listPets",
        "summary": "List pets"
      },
      "post": {
        "operationId": "createPet",
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "properties": {"name": {"type": "string"}, "tag": {"type": "string"}},
                "required": ["name"]
              }
            }
          }
        }
      }
    },
    "/pets/{petId}": {
      "get": {
        "operationId": "getPet",
        "parameters": [
          {"name": "petId", "in": "path", "required": true, "schema": {"type": "string"}}
        ]
      }
    }
  }
}`

func TestParseDocument_JSON(t *testing.T) {
	doc, err := ParseDocument([]byte(petstoreDoc))
	require.NoError(t, err)
	assert.Equal(t, "Petstore", doc.Info.Title)
	assert.Len(t, doc.Paths, 2)
}

func TestGenerate_NamingAndArguments(t *testing.T) {
	doc, err := ParseDocument([]byte(petstoreDoc))
	require.NoError(t, err)

	commands, err := Generate(doc)
	require.NoError(t, err)
	require.Len(t, commands, 3)

	byID := make(map[string]*registry.CommandSpec, len(commands))
	for _, c := range commands {
		byID[c.ColonID()] = c
	}

	list, ok := byID["pets:list-pets"]
	require.True(t, ok, "expected a list-pets command, got %v", keys(byID))
	assert.Equal(t, registry.MethodGet, list.Execution.Http.Method)
	assert.Equal(t, "https://api.example.com", list.Execution.Http.BaseURL)

	create, ok := byID["pets:create-pet"]
	require.True(t, ok)
	assert.Equal(t, "application/json", create.Execution.Http.RequestContentType)
	var flagNames []string
	for _, f := range create.Flags {
		flagNames = append(flagNames, f.Name)
	}
	assert.ElementsMatch(t, []string{"name", "tag"}, flagNames)

	get, ok := byID["pets:get-pet"]
	require.True(t, ok)
	require.Len(t, get.PositionalArgs, 1)
	assert.Equal(t, "petId", get.PositionalArgs[0].Name)
	assert.True(t, get.PositionalArgs[0].Required)
}

func TestGenerate_ProviderInference(t *testing.T) {
	doc, err := ParseDocument([]byte(petstoreDoc))
	require.NoError(t, err)

	commands, err := Generate(doc)
	require.NoError(t, err)

	var get *registry.CommandSpec
	for _, c := range commands {
		if c.ColonID() == "pets:get-pet" {
			get = c
		}
	}
	require.NotNil(t, get)
	require.Len(t, get.PositionalArgs, 1)
	// "pets" singularizes to "pet"; the list index is keyed by the plural
	// group name "pets", which the preceding segment already matches.
	p := get.PositionalArgs[0].ValueProvider
	require.NotNil(t, p, "expected a provider attached to the {petId} positional")
	assert.Equal(t, "pets list-pets", p.ProviderID)
}

// TestGenerate_ProviderInference_ColonOperationID is spec.md §8 scenario 5
// verbatim: GET /apps with operationId "apps:list" and DELETE
// /apps/{app}/config must end up with the {app} positional's provider
// pointed at "apps list". A colon-delimited operationId must survive
// command naming as "apps:list", not collapse into "apps-list" (which
// buildListIndex's ":list"/"list"-prefix check would no longer recognize
// as a listing command).
func TestGenerate_ProviderInference_ColonOperationID(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
      "openapi": "3.0.3",
      "info": {"title": "Apps", "version": "1.0.0"},
      "servers": [{"url": "https://api.example.com"}],
      "paths": {
        "/apps": {
          "get": {"operationId": "apps:list"}
        },
        "/apps/{app}/config": {
          "delete": {"operationId": "apps:config:delete"}
        }
      }
    }`))
	require.NoError(t, err)

	commands, err := Generate(doc)
	require.NoError(t, err)

	byID := make(map[string]*registry.CommandSpec, len(commands))
	for _, c := range commands {
		byID[c.ColonID()] = c
	}

	list, ok := byID["apps:list"]
	require.True(t, ok, "expected an apps:list command, got %v", keys(byID))
	assert.Equal(t, "apps", list.Group)
	assert.Equal(t, "list", list.Name)

	del, ok := byID["apps:config:delete"]
	require.True(t, ok, "expected an apps:config:delete command, got %v", keys(byID))
	require.Len(t, del.PositionalArgs, 1)
	require.Equal(t, "app", del.PositionalArgs[0].Name)

	p := del.PositionalArgs[0].ValueProvider
	require.NotNil(t, p, "expected a provider attached to the {app} positional")
	assert.Equal(t, "apps list", p.ProviderID)
}

func TestGenerate_RejectsNonHTTPSServer(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
      "openapi": "3.0.3",
      "info": {"title": "x", "version": "1"},
      "servers": [{"url": "http://insecure.example.com"}],
      "paths": {"/things": {"get": {"operationId": "listThings"}}}
    }`))
	require.NoError(t, err)

	_, err = Generate(doc)
	assert.Error(t, err)
}

// TestGenerate_DedupesAlternativeSecurityFlags covers an operation with two
// alternative http-type security requirements (basic OR bearer), both of
// which map to the same "authorization" flag: addSecurityFlags must not
// append it twice.
func TestGenerate_DedupesAlternativeSecurityFlags(t *testing.T) {
	doc, err := ParseDocument([]byte(`{
      "openapi": "3.0.3",
      "info": {"title": "Widgets", "version": "1.0.0"},
      "servers": [{"url": "https://api.example.com"}],
      "paths": {
        "/widgets": {
          "get": {
            "operationId": "listWidgets",
            "security": [{"basicAuth": []}, {"bearerAuth": []}]
          }
        }
      },
      "components": {
        "securitySchemes": {
          "basicAuth": {"type": "http", "scheme": "basic"},
          "bearerAuth": {"type": "http", "scheme": "bearer"}
        }
      }
    }`))
	require.NoError(t, err)

	commands, err := Generate(doc)
	require.NoError(t, err)
	require.Len(t, commands, 1)

	var authFlags int
	for _, f := range commands[0].Flags {
		if f.Name == "authorization" {
			authFlags++
		}
	}
	assert.Equal(t, 1, authFlags, "expected exactly one authorization flag, got flags %+v", commands[0].Flags)
}

func keys(m map[string]*registry.CommandSpec) []string {
	var ks []string
	for k := range m {
		ks = append(ks, k)
	}
	return ks
}
