package actions

import "reflect"

// actionRegistry maps YAML action names to their concrete Go types
// This enables polymorphic unmarshaling of ActionStep interfaces from YAML
// Actions are mapped lowercase to allow for fuzzy script writing
//
// To add a new action:
// 1. Create a struct that implements the ActionStep interface (Validate & Build methods)
// 2. Add it to this registry with the name that will be used in YAML files
var actionRegistry = map[string]reflect.Type{
	"click":    reflect.TypeOf(Click{}),
	"send_key": reflect.TypeOf(SendKey{}),
	"key":      reflect.TypeOf(SendKey{}),
	"delay":    reflect.TypeOf(Delay{}),
	"sleep":    reflect.TypeOf(Delay{}),
	"repeat":   reflect.TypeOf(Repeat{}),
}
