package state

import (
	_ "embed"
	"errors"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "state.schema.json"

var stateSchema = jsonschema.MustCompileString(schemaURL, schemaJSON)

// schemaProblem describes the first leaf violation of v against the
// state schema: the package it concerns (if any) and a message.
func schemaProblem(v interface{}) (pkg, msg string, ok bool) {
	err := stateSchema.Validate(v)
	if err == nil {
		return "", "", false
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return "", err.Error(), true
	}
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}
	return packageFromLocation(leaf.InstanceLocation), leaf.Message, true
}

// packageFromLocation extracts <name> from a "/packages/<name>/..." pointer.
func packageFromLocation(loc string) string {
	parts := strings.Split(strings.TrimPrefix(loc, "/"), "/")
	if len(parts) < 2 || parts[0] != "packages" {
		return ""
	}
	r := strings.NewReplacer("~1", "/", "~0", "~")
	return r.Replace(parts[1])
}
