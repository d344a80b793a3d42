package mesh

import (
	"github.com/notargets/govlm/types"
)

type Surface struct {
	ID          int
	Name        string
	Type        types.SurfaceType
	ComponentID int
	Sheet       int // 1-based, 0 unless a wing
	Loops       []int
}

func (s *Surface) IsWing() bool { return s.Type == types.Surface_Wing }
func (s *Surface) IsBody() bool { return s.Type == types.Surface_Body }
