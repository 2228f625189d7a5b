package game

import (
	"math"
	"sort"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/geom"
)

// RankPolicy orders players for ties between equal card priorities and for the
// upgrade shop. It returns players in acting order and must not modify them.
type RankPolicy func(b *board.Board, players []*Player) []*Player

// SeatingRank orders players by client id.
func SeatingRank(_ *board.Board, players []*Player) []*Player {
	out := append([]*Player(nil), players...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClientID() < out[j].ClientID() })
	return out
}

// AntennaRank orders players by distance to the antenna, then by clockwise
// bearing from the antenna's facing, then by client id. Boards without an
// antenna fall back to SeatingRank.
func AntennaRank(b *board.Board, players []*Player) []*Player {
	apos, antenna, ok := b.Antenna()
	if !ok {
		return SeatingRank(b, players)
	}
	facing := antenna.Facing().ToVector()
	base := math.Atan2(float64(facing.Y), float64(facing.X))

	type ranked struct {
		p       *Player
		dist    int
		bearing float64
	}
	rs := make([]ranked, 0, len(players))
	for _, p := range players {
		r := ranked{p: p, dist: math.MaxInt}
		if pos, placed := p.Robot.Pos(); placed {
			d := pos.Sub(apos)
			r.dist = geom.Manhattan(pos, apos)
			// y grows downward, so increasing atan2 is clockwise on screen.
			a := math.Atan2(float64(d.Y), float64(d.X)) - base
			for a < 0 {
				a += 2 * math.Pi
			}
			r.bearing = a
		}
		rs = append(rs, r)
	}
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].dist != rs[j].dist {
			return rs[i].dist < rs[j].dist
		}
		if rs[i].bearing != rs[j].bearing {
			return rs[i].bearing < rs[j].bearing
		}
		return rs[i].p.ClientID() < rs[j].p.ClientID()
	})
	out := make([]*Player, len(rs))
	for i, r := range rs {
		out[i] = r.p
	}
	return out
}

// orderForRegister sorts players for one register: Admin Privilege holders
// first, then higher card priority, then the rank policy.
func orderForRegister(ranked []*Player, cards map[*Player]*Card) []*Player {
	out := append([]*Player(nil), ranked...)
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := out[i].HasUpgrade(CardAdminPrivilege), out[j].HasUpgrade(CardAdminPrivilege)
		if ai != aj {
			return ai
		}
		return cards[out[i]].Priority > cards[out[j]].Priority
	})
	return out
}
