package game

import (
	"testing"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/geom"
	"github.com/peterkuimelis/rallyx/internal/log"
)

func TestConveyorCurveTurnsRobot(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(1, 2), board.NewConveyor(board.SpeedSingle, geom.Right, geom.Left))
	bd.Push(v(2, 2), board.NewConveyor(board.SpeedSingle, geom.Top, geom.Left))
	g, _, _ := newTestGame(t, bd, nil, 1)
	a := placeRobot(g, 0, v(1, 2), geom.Right)

	if err := g.moveBelts(board.SpeedSingle, board.SpeedDouble); err != nil {
		t.Fatal(err)
	}
	if posOf(t, a) != v(2, 2) {
		t.Fatalf("belt carried robot to %s, want (2,2)", posOf(t, a))
	}
	if a.Robot.Orientation != geom.Top {
		t.Errorf("curve should turn the robot left to TOP, got %s", a.Robot.Orientation)
	}
}

func TestDoubleBeltsMoveTwice(t *testing.T) {
	bd := newTestBoard(6, 6)
	for x := 0; x < 3; x++ {
		bd.Push(v(x, 2), board.NewConveyor(board.SpeedDouble, geom.Right, geom.Left))
	}
	bd.Push(v(0, 3), board.NewConveyor(board.SpeedSingle, geom.Right, geom.Left))
	bd.Push(v(1, 3), board.NewConveyor(board.SpeedSingle, geom.Right, geom.Left))
	g, _, _ := newTestGame(t, bd, nil, 2)
	fast := placeRobot(g, 0, v(0, 2), geom.Top)
	slow := placeRobot(g, 1, v(0, 3), geom.Top)

	if err := g.boardPhase(0); err != nil {
		t.Fatal(err)
	}
	if posOf(t, fast) != v(2, 2) {
		t.Errorf("double belt: robot at %s, want (2,2)", posOf(t, fast))
	}
	if posOf(t, slow) != v(1, 3) {
		t.Errorf("single belt: robot at %s, want (1,3)", posOf(t, slow))
	}
	if fast.Robot.Orientation != geom.Top {
		t.Errorf("straight belts must not turn the robot, got %s", fast.Robot.Orientation)
	}
}

func TestBeltConflictsCancelMoves(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(1, 2), board.NewConveyor(board.SpeedSingle, geom.Right, geom.Left))
	bd.Push(v(3, 2), board.NewConveyor(board.SpeedSingle, geom.Left, geom.Right))
	bd.Push(v(1, 4), board.NewConveyor(board.SpeedSingle, geom.Right, geom.Left))
	g, _, logger := newTestGame(t, bd, nil, 4)
	a := placeRobot(g, 0, v(1, 2), geom.Top)
	b := placeRobot(g, 1, v(3, 2), geom.Top)
	c := placeRobot(g, 2, v(1, 4), geom.Top)
	d := placeRobot(g, 3, v(2, 4), geom.Top) // not on a belt

	if err := g.moveBelts(board.SpeedSingle, board.SpeedDouble); err != nil {
		t.Fatal(err)
	}
	if posOf(t, a) != v(1, 2) || posOf(t, b) != v(3, 2) {
		t.Errorf("converging robots moved: %s %s", posOf(t, a), posOf(t, b))
	}
	if posOf(t, c) != v(1, 4) || posOf(t, d) != v(2, 4) {
		t.Errorf("belt pushed a robot: %s %s", posOf(t, c), posOf(t, d))
	}
	if n := len(logger.EventsOfType(log.EventMove)); n != 0 {
		t.Errorf("expected no moves, got %d", n)
	}
}

func TestBeltTrainMovesTogether(t *testing.T) {
	bd := newTestBoard(6, 6)
	for x := 1; x < 4; x++ {
		bd.Push(v(x, 2), board.NewConveyor(board.SpeedSingle, geom.Right, geom.Left))
	}
	g, _, _ := newTestGame(t, bd, nil, 2)
	a := placeRobot(g, 0, v(1, 2), geom.Top)
	b := placeRobot(g, 1, v(2, 2), geom.Top)

	if err := g.moveBelts(board.SpeedSingle); err != nil {
		t.Fatal(err)
	}
	if posOf(t, a) != v(2, 2) || posOf(t, b) != v(3, 2) {
		t.Errorf("train: A %s B %s", posOf(t, a), posOf(t, b))
	}
}

func TestGearsAndPushPanels(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(1, 1), board.NewGear(geom.TurnRight))
	bd.Push(v(3, 3), board.NewPushPanel(geom.Right, 0, 2))
	g, _, _ := newTestGame(t, bd, nil, 2)
	a := placeRobot(g, 0, v(1, 1), geom.Top)
	b := placeRobot(g, 1, v(3, 3), geom.Bottom)

	if err := g.boardPhase(1); err != nil {
		t.Fatal(err)
	}
	if a.Robot.Orientation != geom.Right {
		t.Errorf("gear: facing %s, want RIGHT", a.Robot.Orientation)
	}
	if posOf(t, b) != v(3, 3) {
		t.Errorf("push panel fired in an inactive register: %s", posOf(t, b))
	}

	if err := g.boardPhase(2); err != nil {
		t.Fatal(err)
	}
	if posOf(t, b) != v(4, 3) {
		t.Errorf("push panel: robot at %s, want (4,3)", posOf(t, b))
	}
}

func TestBoardLaserHitsFirstRobot(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(0, 2), board.NewLaser(geom.Right, 1))
	g, _, logger := newTestGame(t, bd, nil, 2)
	a := placeRobot(g, 0, v(3, 2), geom.Top)
	b := placeRobot(g, 1, v(4, 2), geom.Top)

	if err := g.fireBoardLasers(); err != nil {
		t.Fatal(err)
	}
	if n := a.Cards.DiscardPile().Count(CardSpam); n != 1 {
		t.Errorf("first robot took %d Spam, want 1", n)
	}
	if n := b.Cards.DiscardPile().Count(CardSpam); n != 0 {
		t.Errorf("shadowed robot took %d Spam", n)
	}
	if n := len(logger.EventsOfType(log.EventLaserHit)); n != 1 {
		t.Errorf("expected 1 laser hit, got %d", n)
	}
}

func TestBoardLaserBlockedByWall(t *testing.T) {
	bd := newTestBoard(6, 6)
	bd.Push(v(0, 2), board.NewLaser(geom.Right, 2))
	bd.Push(v(2, 2), board.NewWall(geom.Right))
	bd.Push(v(0, 4), board.NewLaser(geom.Right, 2))
	g, _, _ := newTestGame(t, bd, nil, 2)
	behind := placeRobot(g, 0, v(3, 2), geom.Top)
	onEmitter := placeRobot(g, 1, v(0, 4), geom.Top)

	if err := g.fireBoardLasers(); err != nil {
		t.Fatal(err)
	}
	if n := behind.Cards.DiscardPile().Count(CardSpam); n != 0 {
		t.Errorf("beam passed the wall: %d Spam", n)
	}
	if n := onEmitter.Cards.DiscardPile().Count(CardSpam); n != 2 {
		t.Errorf("robot on the emitter took %d Spam, want 2", n)
	}
}

func TestRobotLasers(t *testing.T) {
	g, _, _ := newTestGame(t, newTestBoard(6, 6), nil, 3)
	shooter := placeRobot(g, 0, v(1, 1), geom.Right)
	front := placeRobot(g, 1, v(4, 1), geom.Bottom)
	rear := placeRobot(g, 2, v(0, 1), geom.Top)

	if err := g.fireRobotLasers(); err != nil {
		t.Fatal(err)
	}
	if n := front.Cards.DiscardPile().Count(CardSpam); n != 1 {
		t.Errorf("front robot took %d Spam, want 1", n)
	}
	if n := rear.Cards.DiscardPile().Count(CardSpam); n != 0 {
		t.Errorf("rear robot hit without Rear Laser")
	}

	shooter.Upgrades.Add(CardFor(CardRearLaser))
	shooter.Upgrades.Add(CardFor(CardDoubleBarrelLaser))
	if err := g.fireRobotLasers(); err != nil {
		t.Fatal(err)
	}
	if n := front.Cards.DiscardPile().Count(CardSpam); n != 3 {
		t.Errorf("front robot total %d Spam, want 3", n)
	}
	if n := rear.Cards.DiscardPile().Count(CardSpam); n != 2 {
		t.Errorf("rear robot took %d Spam, want 2", n)
	}
	if n := shooter.Cards.DiscardPile().Count(CardSpam); n != 0 {
		t.Errorf("shooter hit itself or was hit: %d", n)
	}
}
