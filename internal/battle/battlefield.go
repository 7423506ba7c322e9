package battle

import (
	"fmt"

	"github.com/louisbranch/ironfront/internal/rules"
)

// Battlefield describes the ground an operation is fought over. It is
// selected once at operation start from the target objective and never
// changes for the operation's lifetime.
type Battlefield struct {
	TerrainName    string
	Infrastructure int
	Terrain        rules.Terrain
}

// NewBattlefield resolves a terrain name against the rule tables.
func NewBattlefield(tables *rules.Tables, terrainName string, infrastructure int) (Battlefield, error) {
	terrain, err := tables.TerrainClass(terrainName)
	if err != nil {
		return Battlefield{}, fmt.Errorf("resolve battlefield: %w", err)
	}
	if infrastructure < 0 {
		infrastructure = 0
	}
	return Battlefield{
		TerrainName:    terrainName,
		Infrastructure: infrastructure,
		Terrain:        terrain,
	}, nil
}
