package rules

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed data/*.json
var defaultData embed.FS

// tableFiles maps each table file name to its decode target factory.
const (
	constantsFile      = "constants.json"
	decisionsFile      = "decisions.json"
	operationTypesFile = "operation_types.json"
	supplyClassesFile  = "supply_classes.json"
	rolesFile          = "roles.json"
	terrainFile        = "terrain.json"
	endStatesFile      = "end_states.json"
)

var (
	// ErrUnknownDecision indicates a decision string with no table entry.
	ErrUnknownDecision = errors.New("unknown decision option")
	// ErrUnknownOperationType indicates an operation type with no table entry.
	ErrUnknownOperationType = errors.New("unknown operation type")
	// ErrUnknownTerrain indicates a terrain class with no table entry.
	ErrUnknownTerrain = errors.New("unknown terrain")
	// ErrUnknownEndState indicates an end state with no table entry.
	ErrUnknownEndState = errors.New("unknown end state")
)

// Default loads and validates the embedded rule tables.
func Default() (*Tables, error) {
	tables, err := loadFS(defaultData, "data")
	if err != nil {
		return nil, fmt.Errorf("load embedded rules: %w", err)
	}
	if err := tables.validate(); err != nil {
		return nil, fmt.Errorf("validate embedded rules: %w", err)
	}
	return tables, nil
}

// LoadDir loads rule tables from a directory, falling back to the embedded
// defaults for any table file the directory does not provide. The merged
// result is validated as a whole.
func LoadDir(dir string) (*Tables, error) {
	tables, err := loadFS(defaultData, "data")
	if err != nil {
		return nil, fmt.Errorf("load embedded rules: %w", err)
	}

	overrides := os.DirFS(filepath.Clean(dir))
	for _, name := range []string{
		constantsFile, decisionsFile, operationTypesFile,
		supplyClassesFile, rolesFile, terrainFile, endStatesFile,
	} {
		raw, err := fs.ReadFile(overrides, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read rule override %s: %w", name, err)
		}
		if err := tables.decodeInto(name, raw); err != nil {
			return nil, fmt.Errorf("decode rule override %s: %w", name, err)
		}
	}

	if err := tables.validate(); err != nil {
		return nil, fmt.Errorf("validate rules from %s: %w", dir, err)
	}
	return tables, nil
}

func loadFS(fsys fs.FS, root string) (*Tables, error) {
	tables := &Tables{}
	for _, name := range []string{
		constantsFile, decisionsFile, operationTypesFile,
		supplyClassesFile, rolesFile, terrainFile, endStatesFile,
	} {
		raw, err := fs.ReadFile(fsys, filepath.Join(root, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		if err := tables.decodeInto(name, raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
	}
	return tables, nil
}

// decodeInto decodes one table file into its slot. Unknown fields are
// rejected so a typo in a tuning file fails loudly at load time.
func (t *Tables) decodeInto(name string, raw []byte) error {
	var target any
	switch name {
	case constantsFile:
		target = &t.Constants
	case decisionsFile:
		target = &t.Decisions
	case operationTypesFile:
		target = &t.OperationTypes
	case supplyClassesFile:
		target = &t.SupplyClasses
	case rolesFile:
		target = &t.Roles
	case terrainFile:
		target = &t.Terrain
	case endStatesFile:
		target = &t.EndStates
	default:
		return fmt.Errorf("unexpected rule table file %q", name)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return err
	}
	return nil
}

// Decision looks up a decision option by its string key.
func (t *Tables) Decision(name string) (DecisionOption, error) {
	opt, ok := t.Decisions[name]
	if !ok {
		return DecisionOption{}, fmt.Errorf("%w: %q", ErrUnknownDecision, name)
	}
	return opt, nil
}

// Operation looks up an operation type by name.
func (t *Tables) Operation(name string) (OperationType, error) {
	op, ok := t.OperationTypes[name]
	if !ok {
		return OperationType{}, fmt.Errorf("%w: %q", ErrUnknownOperationType, name)
	}
	return op, nil
}

// TerrainClass looks up a terrain class by name.
func (t *Tables) TerrainClass(name string) (Terrain, error) {
	terrain, ok := t.Terrain[name]
	if !ok {
		return Terrain{}, fmt.Errorf("%w: %q", ErrUnknownTerrain, name)
	}
	return terrain, nil
}

// End looks up an end state by name.
func (t *Tables) End(name string) (EndState, error) {
	end, ok := t.EndStates[name]
	if !ok {
		return EndState{}, fmt.Errorf("%w: %q", ErrUnknownEndState, name)
	}
	return end, nil
}
