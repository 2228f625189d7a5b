package game

import (
	"testing"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/geom"
	"github.com/peterkuimelis/rallyx/internal/log"
)

func v(x, y int) geom.Vector { return geom.Vector{X: x, Y: y} }

func TestPushChain(t *testing.T) {
	g, _, logger := newTestGame(t, newTestBoard(6, 6), nil, 3)
	a := placeRobot(g, 0, v(1, 3), geom.Right)
	b := placeRobot(g, 1, v(2, 3), geom.Top)
	c := placeRobot(g, 2, v(3, 3), geom.Left)

	if err := g.moveRobot(a, geom.Right, 1); err != nil {
		t.Fatal(err)
	}
	if posOf(t, a) != v(2, 3) || posOf(t, b) != v(3, 3) || posOf(t, c) != v(4, 3) {
		t.Fatalf("after push: A %s B %s C %s", posOf(t, a), posOf(t, b), posOf(t, c))
	}
	if b.Robot.Orientation != geom.Top || c.Robot.Orientation != geom.Left {
		t.Error("pushed robots must keep their orientation")
	}
	if n := len(logger.EventsOfType(log.EventPush)); n != 2 {
		t.Errorf("expected 2 push events, got %d", n)
	}
}

func TestBlockedPushRollsBack(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(3, 3), board.NewWall(geom.Right))
	g, _, logger := newTestGame(t, bd, nil, 2)
	a := placeRobot(g, 0, v(1, 3), geom.Right)
	b := placeRobot(g, 1, v(3, 3), geom.Top)

	// A moves into (2,3) freely, then cannot push B through the wall.
	if err := g.moveRobot(a, geom.Right, 3); err != nil {
		t.Fatal(err)
	}
	if posOf(t, a) != v(2, 3) || posOf(t, b) != v(3, 3) {
		t.Fatalf("A %s B %s, want (2,3) and (3,3)", posOf(t, a), posOf(t, b))
	}
	if n := len(logger.EventsOfType(log.EventMove)); n != 1 {
		t.Errorf("expected 1 move event, got %d", n)
	}
	if n := len(logger.EventsOfType(log.EventPush)); n != 0 {
		t.Errorf("blocked push must not be logged, got %d", n)
	}
}

func TestPushAtBoardEdgeIsCancelled(t *testing.T) {
	g, _, logger := newTestGame(t, newTestBoard(6, 6), nil, 2)
	a := placeRobot(g, 0, v(4, 3), geom.Right)
	b := placeRobot(g, 1, v(5, 3), geom.Top)

	if err := g.moveRobot(a, geom.Right, 1); err != nil {
		t.Fatal(err)
	}
	if posOf(t, a) != v(4, 3) || posOf(t, b) != v(5, 3) {
		t.Fatalf("A %s B %s, want (4,3) and (5,3)", posOf(t, a), posOf(t, b))
	}
	if b.Rebooting {
		t.Error("B must not be pushed off the board")
	}
	if n := len(logger.EventsOfType(log.EventReboot)); n != 0 {
		t.Errorf("expected no reboot, got %d", n)
	}

	// Alone, B still walks off the edge.
	if err := g.moveRobot(b, geom.Right, 1); err != nil {
		t.Fatal(err)
	}
	if !b.Rebooting {
		t.Error("B walked off the board without rebooting")
	}
}

func TestWallBlocksFromBothSides(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(2, 2), board.NewWall(geom.Top))
	g, _, _ := newTestGame(t, bd, nil, 2)
	below := placeRobot(g, 0, v(2, 2), geom.Top)
	above := placeRobot(g, 1, v(2, 1), geom.Bottom)

	_ = g.moveRobot(below, geom.Top, 1)
	_ = g.moveRobot(above, geom.Bottom, 1)
	if posOf(t, below) != v(2, 2) || posOf(t, above) != v(2, 1) {
		t.Errorf("wall crossed: %s %s", posOf(t, below), posOf(t, above))
	}
}

func TestAntennaIsImpassable(t *testing.T) {
	g, _, _ := newTestGame(t, newTestBoard(6, 6), nil, 1)
	a := placeRobot(g, 0, v(4, 5), geom.Right)
	_ = g.moveRobot(a, geom.Right, 2)
	if posOf(t, a) != v(4, 5) {
		t.Errorf("robot entered the antenna: %s", posOf(t, a))
	}
}

func TestPitRebootsAtRestartPoint(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(2, 1), board.NewPit())
	bd.Push(v(4, 2), board.NewRestartPoint(geom.Left))
	g, _, logger := newTestGame(t, bd, nil, 1)
	a := placeRobot(g, 0, v(2, 2), geom.Top)

	if err := g.moveRobot(a, geom.Top, 3); err != nil {
		t.Fatal(err)
	}
	if posOf(t, a) != v(4, 2) || a.Robot.Orientation != geom.Left {
		t.Fatalf("rebooted at %s facing %s, want (4,2) facing LEFT", posOf(t, a), a.Robot.Orientation)
	}
	if !a.Rebooting {
		t.Error("Rebooting flag not set")
	}
	if n := a.Cards.DiscardPile().Count(CardSpam); n != 2 {
		t.Errorf("expected 2 reboot Spam in discard, got %d", n)
	}
	if g.Shared.Size(PoolSpam) != 36 {
		t.Errorf("spam pool %d, want 36", g.Shared.Size(PoolSpam))
	}
	if n := len(logger.EventsOfType(log.EventReboot)); n != 1 {
		t.Errorf("expected 1 reboot event, got %d", n)
	}
	// The remaining steps are lost.
	if n := len(logger.EventsOfType(log.EventMove)); n != 1 {
		t.Errorf("expected 1 move event, got %d", n)
	}
}

func TestFallOffInStartingAreaReturnsToStart(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(4, 2), board.NewRestartPoint(geom.Left))
	g, _, _ := newTestGame(t, bd, nil, 1)
	a := placeRobot(g, 0, v(0, 5), geom.Bottom)

	if err := g.moveRobot(a, geom.Bottom, 1); err != nil {
		t.Fatal(err)
	}
	if posOf(t, a) != v(0, 5) || a.Robot.Orientation != geom.Top {
		t.Errorf("rebooted at %s facing %s, want start (0,5) facing TOP", posOf(t, a), a.Robot.Orientation)
	}
}

func TestRebootPushesOccupant(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(2, 1), board.NewPit())
	bd.Push(v(4, 2), board.NewRestartPoint(geom.Left))
	g, _, _ := newTestGame(t, bd, nil, 2)
	a := placeRobot(g, 0, v(2, 2), geom.Top)
	b := placeRobot(g, 1, v(4, 2), geom.Bottom)

	if err := g.moveRobot(a, geom.Top, 1); err != nil {
		t.Fatal(err)
	}
	if posOf(t, a) != v(4, 2) {
		t.Errorf("A rebooted at %s", posOf(t, a))
	}
	if posOf(t, b) != v(3, 2) {
		t.Errorf("occupant should be pushed to (3,2), is at %s", posOf(t, b))
	}
}

func TestFirewallPreventsRebootSpam(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(2, 1), board.NewPit())
	g, _, _ := newTestGame(t, bd, nil, 1)
	a := placeRobot(g, 0, v(2, 2), geom.Top)
	a.Upgrades.Add(CardFor(CardFirewall))

	_ = g.moveRobot(a, geom.Top, 1)
	if n := a.Cards.DiscardPile().Count(CardSpam); n != 0 {
		t.Errorf("Firewall: got %d Spam", n)
	}
}

func TestRebootDiscardsRemainingRegisters(t *testing.T) {
	g, _, _ := newTestGame(t, newTestBoard(6, 6), nil, 1)
	a := placeRobot(g, 0, v(2, 2), geom.Top)
	for i := 0; i < RegisterCount; i++ {
		_ = a.Register.Set(i, CardFor(CardMoveI))
	}
	g.register = 1

	if err := g.reboot(a, "test"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < RegisterCount; i++ {
		c, _ := a.Register.Get(i)
		if (i <= 1) != (c != nil) {
			t.Errorf("register %d: %v", i+1, c)
		}
	}
	if n := a.Cards.DiscardPile().Count(CardMoveI); n != 3 {
		t.Errorf("expected 3 Move I discarded, got %d", n)
	}
}

func TestCheckpointsInOrder(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(3, 0), board.NewCheckpoint(2))
	g, _, logger := newTestGame(t, bd, nil, 1)
	a := placeRobot(g, 0, v(3, 1), geom.Top)

	// Checkpoint 2 first does not count.
	_ = g.moveRobot(a, geom.Top, 1)
	if a.Robot.Checkpoints != 0 {
		t.Fatalf("out-of-order checkpoint counted: %d", a.Robot.Checkpoints)
	}
	g.rotateRobot(a, geom.TurnRight)
	_ = g.moveRobot(a, geom.Right, 2)
	if a.Robot.Checkpoints != 1 {
		t.Fatalf("checkpoint 1 not claimed: %d", a.Robot.Checkpoints)
	}
	_ = g.moveRobot(a, geom.Left, 2)
	if a.Robot.Checkpoints != 2 {
		t.Fatalf("checkpoint 2 not claimed: %d", a.Robot.Checkpoints)
	}
	if len(g.claimOrder) != 1 || g.claimOrder[0] != 0 {
		t.Errorf("claim order %v", g.claimOrder)
	}
	if n := len(logger.EventsOfType(log.EventCheckpoint)); n != 2 {
		t.Errorf("expected 2 checkpoint events, got %d", n)
	}
}

func TestEnergySpaceOncePerCharge(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(2, 2), board.NewEnergySpace())
	g, _, _ := newTestGame(t, bd, nil, 1)
	a := placeRobot(g, 0, v(2, 3), geom.Top)
	start := a.Robot.Energy

	_ = g.moveRobot(a, geom.Top, 1)
	_ = g.moveRobot(a, geom.Bottom, 1)
	_ = g.moveRobot(a, geom.Top, 1)
	if a.Robot.Energy != start+1 {
		t.Errorf("energy %d, want %d", a.Robot.Energy, start+1)
	}
	bd.RechargeEnergySpaces()
	g.activateEntry(a)
	if a.Robot.Energy != start+2 {
		t.Errorf("after recharge energy %d, want %d", a.Robot.Energy, start+2)
	}
}
