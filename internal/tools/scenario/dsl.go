// Package scenario loads Lua-scripted campaign scenarios and executes
// them against an in-process game session. Scripts build a Scenario
// value with setup steps (objectives, forces, stock, seed), action steps
// (start_operation, decide, advance, acknowledge, start_raid), and
// expectation steps checked by the runner's assertion mode.
package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"
)

const scenarioTypeName = "scenario"

// Scenario is a named ordered list of steps produced by a Lua script.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scenario step: a kind plus its keyword arguments.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile runs a Lua scenario script and returns the
// Scenario it builds. The script must return the Scenario value.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerScenarioType(state)
	registerScenarioConstructor(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

func registerScenarioType(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerScenarioConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "objective", Function: scenarioObjective},
	{Name: "force", Function: scenarioForce},
	{Name: "stock", Function: scenarioStock},
	{Name: "seed", Function: scenarioSeed},
	{Name: "start_operation", Function: scenarioStartOperation},
	{Name: "decide", Function: scenarioDecide},
	{Name: "advance", Function: scenarioAdvance},
	{Name: "advance_phase", Function: scenarioAdvancePhase},
	{Name: "acknowledge", Function: scenarioAcknowledge},
	{Name: "start_raid", Function: scenarioStartRaid},
	{Name: "expect_phase", Function: scenarioExpectPhase},
	{Name: "expect_complete", Function: scenarioExpectComplete},
	{Name: "expect_losses_at_most", Function: scenarioExpectLossesAtMost},
}

func scenarioObjective(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "objective", tableToMap(state, 2))
	return 0
}

func scenarioForce(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "force", tableToMap(state, 2))
	return 0
}

func scenarioStock(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "stock", tableToMap(state, 2))
	return 0
}

func scenarioSeed(state *lua.State) int {
	scenario := checkScenario(state)
	value := lua.CheckInteger(state, 2)
	appendStep(scenario, "seed", map[string]any{"value": value})
	return 0
}

func scenarioStartOperation(state *lua.State) int {
	scenario := checkScenario(state)
	objectiveID := lua.CheckString(state, 2)
	opType := lua.CheckString(state, 3)
	appendStep(scenario, "start_operation", map[string]any{
		"objective": objectiveID,
		"type":      opType,
	})
	return 0
}

func scenarioDecide(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "decide", tableToMap(state, 2))
	return 0
}

func scenarioAdvance(state *lua.State) int {
	scenario := checkScenario(state)
	days := lua.OptInteger(state, 2, 1)
	appendStep(scenario, "advance", map[string]any{"days": days})
	return 0
}

func scenarioAdvancePhase(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "advance_phase", nil)
	return 0
}

func scenarioAcknowledge(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "acknowledge", nil)
	return 0
}

func scenarioStartRaid(state *lua.State) int {
	scenario := checkScenario(state)
	objectiveID := lua.CheckString(state, 2)
	appendStep(scenario, "start_raid", map[string]any{"objective": objectiveID})
	return 0
}

func scenarioExpectPhase(state *lua.State) int {
	scenario := checkScenario(state)
	phase := lua.CheckString(state, 2)
	appendStep(scenario, "expect_phase", map[string]any{"phase": phase})
	return 0
}

func scenarioExpectComplete(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "expect_complete", nil)
	return 0
}

func scenarioExpectLossesAtMost(state *lua.State) int {
	scenario := checkScenario(state)
	limit := lua.CheckInteger(state, 2)
	appendStep(scenario, "expect_losses_at_most", map[string]any{"limit": limit})
	return 0
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToMap(state, index)
	default:
		return nil
	}
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
