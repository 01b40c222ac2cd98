package main

import (
	"encoding/json"
	"os"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

var routerAnnotation = regexp.MustCompile(`@Router\s+(\S+)\s+\[(\w+)\]`)

type swaggerDoc struct {
	Paths       map[string]map[string]json.RawMessage `json:"paths"`
	Definitions map[string]struct {
		Properties map[string]json.RawMessage `json:"properties"`
	} `json:"definitions"`
}

func readSwaggerDoc(t *testing.T) swaggerDoc {
	t.Helper()
	raw, err := swag.ReadDoc()
	require.NoError(t, err)
	var doc swaggerDoc
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

// TestSwaggerDocMatchesHandlers ensures the served document lists exactly
// the routes annotated on the book handlers and the fields of a book.
func TestSwaggerDocMatchesHandlers(t *testing.T) {
	doc := readSwaggerDoc(t)

	src, err := os.ReadFile("api.handlers.book.go")
	require.NoError(t, err)
	var annotated []string
	for _, m := range routerAnnotation.FindAllStringSubmatch(string(src), -1) {
		annotated = append(annotated, strings.ToLower(m[2])+" "+m[1])
	}
	require.NotEmpty(t, annotated)

	var documented []string
	for path, methods := range doc.Paths {
		for method := range methods {
			documented = append(documented, method+" "+path)
		}
	}
	sort.Strings(annotated)
	sort.Strings(documented)
	assert.Equal(t, annotated, documented)

	book, ok := doc.Definitions["main.Book"]
	require.True(t, ok)
	var fields []string
	rt := reflect.TypeOf(Book{})
	for i := 0; i < rt.NumField(); i++ {
		fields = append(fields, strings.Split(rt.Field(i).Tag.Get("json"), ",")[0])
	}
	var properties []string
	for name := range book.Properties {
		properties = append(properties, name)
	}
	sort.Strings(fields)
	sort.Strings(properties)
	assert.Equal(t, fields, properties)
}

// TestSwaggerDocBasePath ensures the documented routes live under the default base path.
func TestSwaggerDocBasePath(t *testing.T) {
	config := validTestConfig()
	require.NoError(t, InitConfig(config, "", "", ""))
	for path := range readSwaggerDoc(t).Paths {
		assert.True(t, strings.HasPrefix(path, config.Server.BasePath), path)
	}
}
