package layout

import "github.com/warp/shelf-engine/synth"

// Scalars returns the global scalar table: Theta, Tau, then Lambda_1..Lambda_L.
func (g *Generator) Scalars() []synth.Scalar {
	out := make([]synth.Scalar, 0, 2+g.cfg.LevelImpulse.Len())
	out = append(out,
		synth.Scalar{Key: synth.ScalarDailyCustomers, Value: float64(g.cfg.DailyCustomers)},
		synth.Scalar{Key: synth.ScalarTraffic, Value: g.cfg.Traffic.InexactFloat64()},
	)
	for _, lm := range g.cfg.LevelImpulse {
		out = append(out, synth.Scalar{Key: synth.LevelScalarKey(lm.Level), Value: lm.Value.InexactFloat64()})
	}
	return out
}
