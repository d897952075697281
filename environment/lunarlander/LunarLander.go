// Package lunarlander provides an implementation of the Lunar Lander
// environment with a discrete action space.
//
// The lander starts near the top of the screen with a random initial
// force applied to its centre and must settle on the landing pad. At
// each step the agent fires at most one engine: the main engine or one
// of the two orientation engines. Landing gently on both legs and
// coming to rest ends the episode with a bonus, crashing or drifting
// off screen ends it with a penalty.
package lunarlander

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/ByteArena/box2d"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/landerlab/golander/environment"
	"github.com/landerlab/golander/timestep"
	"github.com/landerlab/golander/utils/floatutils"
)

const (
	FPS float64 = 50

	// speed of game, adjusts forces as well
	Scale float64 = 30.0

	XGravity float64 = 0.0
	YGravity float64 = -10.0

	MainEnginePower float64 = 13.0
	SideEnginePower float64 = 0.6

	LegAway         float64 = 20.0
	LegDown         float64 = 18.0
	LegW            float64 = 2.0
	LegH            float64 = 8.0
	LegSpringTorque float64 = 40.0

	SideEngineHeight float64 = 14.0
	SideEngineAway   float64 = 12.0

	Chunks int = 11

	ViewportW float64 = 600
	ViewportH float64 = 400

	// Actions
	NoOp       int = 0
	FireLeft   int = 1
	FireMain   int = 2
	FireRight  int = 3
	NumActions int = 4

	// State observations
	StateObservations int     = 8
	MinAngle          float64 = -math.Pi
	MaxAngle          float64 = math.Pi
	// Box2D limits on velocity: 2.0 units per timestep
	MaxVelocity float64 = 2.0 / (1.0 / FPS) // In Box2D units
	MinVelocity float64 = -MaxVelocity      // In Box2D units

	// Default starting values
	InitialX      float64 = (ViewportW / Scale / 2)
	InitialY      float64 = ((ViewportH - ViewportH/25) / Scale)
	InitialRandom float64 = 1000.0 // Set 1500 to make game harder
)

// LanderPoly is the hull of the lander in pixel coordinates
var LanderPoly [][]float64 = [][]float64{
	{-14, 17},
	{-17, 0},
	{-17, -10},
	{17, -10},
	{17, 0},
	{14, 17},
}

type contactDetector struct {
	env *LunarLander
}

func newContactDetector(e *LunarLander) *contactDetector {
	return &contactDetector{e}
}

func (c *contactDetector) BeginContact(contact box2d.B2ContactInterface) {
	// If the hull touches the ground, it's game over. The ship should
	// be landed gently on its legs.
	if c.env.lander == contact.GetFixtureA().GetBody() ||
		c.env.lander == contact.GetFixtureB().GetBody() {
		c.env.gameOver = true
	}

	if c.env.legs[0] == contact.GetFixtureA().GetBody() ||
		c.env.legs[0] == contact.GetFixtureB().GetBody() {
		c.env.leg1GroundContact = true
	}

	if c.env.legs[1] == contact.GetFixtureA().GetBody() ||
		c.env.legs[1] == contact.GetFixtureB().GetBody() {
		c.env.leg2GroundContact = true
	}
}

func (c *contactDetector) EndContact(contact box2d.B2ContactInterface) {
	if c.env.legs[0] == contact.GetFixtureA().GetBody() ||
		c.env.legs[0] == contact.GetFixtureB().GetBody() {
		c.env.leg1GroundContact = false
	}

	if c.env.legs[1] == contact.GetFixtureA().GetBody() ||
		c.env.legs[1] == contact.GetFixtureB().GetBody() {
		c.env.leg2GroundContact = false
	}
}

func (c *contactDetector) PreSolve(contact box2d.B2ContactInterface,
	oldManifold box2d.B2Manifold) {
}

func (c *contactDetector) PostSolve(contact box2d.B2ContactInterface,
	impulse *box2d.B2ContactImpulse) {
}

// LunarLander implements the lunar lander environment. Internally the
// engines are driven by continuous throttles; the discrete actions of
// the public interface map onto fixed throttle settings.
type LunarLander struct {
	environment.Task
	ender environment.Ender

	world box2d.B2World

	boundary []*box2d.B2Body
	xBounds  r1.Interval
	yBounds  r1.Interval

	moon         *box2d.B2Body
	moonVertices [][2]float64

	lander *box2d.B2Body

	legs              []*box2d.B2Body
	leg1GroundContact bool
	leg2GroundContact bool

	helipadX1 float64
	helipadX2 float64
	helipadY  float64

	gameOver bool
	rng      distuv.Uniform

	angleBounds    r1.Interval
	velocityBounds r1.Interval

	discount float64
	prevStep timestep.TimeStep
	mPower   float64
	sPower   float64
}

// New returns a new LunarLander with the given task. The environment
// must be Reset before its first Step.
func New(task environment.Task, discount float64) (*LunarLander, error) {
	if discount < 0 || discount > 1 {
		return nil, fmt.Errorf("new: discount must be in [0, 1], got %v",
			discount)
	}

	l := LunarLander{}
	l.world = box2d.MakeB2World(box2d.B2Vec2{X: XGravity, Y: YGravity})

	l.moon = nil
	l.lander = nil
	l.gameOver = false
	l.discount = discount

	l.angleBounds = r1.Interval{Min: MinAngle, Max: MaxAngle}
	l.velocityBounds = r1.Interval{Min: MinVelocity, Max: MaxVelocity}
	l.yBounds = r1.Interval{Min: ViewportH / Scale / 2, Max: InitialY}
	l.xBounds = r1.Interval{Min: -ViewportW / 2, Max: ViewportW / 2}

	l.Task = task
	if t, ok := task.(landerTask); ok {
		t.registerEnv(&l)
	}
	if ender, ok := task.(environment.Ender); ok {
		l.ender = ender
	}

	return &l, nil
}

// SPower returns the throttle of the orientation engines on the last
// step
func (l *LunarLander) SPower() float64 {
	return l.sPower
}

// MPower returns the throttle of the main engine on the last step
func (l *LunarLander) MPower() float64 {
	return l.mPower
}

// IsAwake returns whether the lander body is still moving. A sleeping
// body has come to rest on the surface.
func (l *LunarLander) IsAwake() bool {
	return l.lander.IsAwake()
}

// GroundContact returns whether each of the two legs touches the ground
func (l *LunarLander) GroundContact() (bool, bool) {
	return l.leg1GroundContact, l.leg2GroundContact
}

// IsGameOver returns whether the lander hull has hit the ground
func (l *LunarLander) IsGameOver() bool {
	return l.gameOver
}

func (l *LunarLander) destroy() {
	if l.moon == nil {
		return
	}
	l.world.SetContactListener(nil)
	l.world.DestroyBody(l.moon)
	l.moon = nil

	l.world.DestroyBody(l.lander)
	l.lander = nil

	l.world.DestroyBody(l.legs[0])
	l.world.DestroyBody(l.legs[1])

	for i := range l.boundary {
		l.world.DestroyBody(l.boundary[i])
	}
}

// Reset starts a new episode and returns its first timestep. All of
// the environment's randomness, including the terrain, the initial
// force on the lander, and the engine dispersion noise, is drawn from
// a stream reseeded with seed, so two episodes reset with equal seeds
// and fed equal actions produce equal trajectories.
func (l *LunarLander) Reset(seed uint64) (timestep.TimeStep, error) {
	l.destroy()
	l.world.SetContactListener(newContactDetector(l))
	l.gameOver = false
	l.prevStep = timestep.TimeStep{}
	l.mPower = 0.0
	l.sPower = 0.0

	l.rng = distuv.Uniform{Min: 0, Max: 1.0, Src: rand.NewSource(seed)}

	if t, ok := l.Task.(landerTask); ok {
		t.reset()
	}
	if s, ok := l.Task.(interface{ Seed(uint64) }); ok {
		s.Seed(seed)
	}

	start := l.Start()
	if err := validateStart(start, l.xBounds, l.yBounds); err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	// Maximum W and H for Box2D world
	W := ViewportW / Scale
	H := ViewportH / Scale

	// Bounds
	l.boundary = make([]*box2d.B2Body, 4)
	corners := [5]box2d.B2Vec2{
		box2d.MakeB2Vec2(0.0, 0.0),
		box2d.MakeB2Vec2(0.0, H),
		box2d.MakeB2Vec2(W, H),
		box2d.MakeB2Vec2(W, 0.0),
		box2d.MakeB2Vec2(0.0, 0.0),
	}
	for i := 0; i < 4; i++ {
		boundsDef := box2d.NewB2BodyDef()
		boundsDef.Type = 0 // Static body
		l.boundary[i] = l.world.CreateBody(boundsDef)

		boundsShape := box2d.NewB2EdgeShape()
		boundsShape.Set(corners[i], corners[i+1])

		boundsFix := box2d.MakeB2FixtureDef()
		boundsFix.Shape = boundsShape
		l.boundary[i].CreateFixtureFromDef(&boundsFix)
	}

	// Terrain
	height := make([]float64, Chunks+1)
	for i := 0; i < len(height); i++ {
		height[i] = l.rng.Rand() * (H / 2.0)
	}

	chunkX := make([]float64, Chunks)
	for i := 0; i < Chunks; i++ {
		chunkX[i] = float64(i) * (W / float64(Chunks-1))
	}

	l.helipadX1 = chunkX[Chunks/2-1]
	l.helipadX2 = chunkX[Chunks/2+1]
	l.helipadY = H / 4

	height[Chunks/2-2] = l.helipadY
	height[Chunks/2-1] = l.helipadY
	height[Chunks/2] = l.helipadY
	height[Chunks/2+1] = l.helipadY
	height[Chunks/2+2] = l.helipadY

	smoothY := make([]float64, Chunks)
	for i := 0; i < Chunks; i++ {
		if i == 0 {
			smoothY[i] = 0.33 * (height[Chunks-1] + height[i] + height[i+1])
		} else {
			smoothY[i] = 0.33 * (height[i-1] + height[i] + height[i+1])
		}
	}

	// Moon body
	moonDef := box2d.NewB2BodyDef()
	moonDef.Type = 0
	moonDef.Position.Set(0, 0)
	moonBody := l.world.CreateBody(moonDef)
	l.moon = moonBody

	moonShape := box2d.NewB2EdgeShape()
	moonShape.Set(*box2d.NewB2Vec2(0.0, 0.0), *box2d.NewB2Vec2(W, 0.0))

	moonFixture := box2d.MakeB2FixtureDef()
	moonFixture.Shape = moonShape
	moonBody.CreateFixtureFromDef(&moonFixture)

	l.moonVertices = make([][2]float64, 0, 2*(Chunks-1))
	for i := 0; i < Chunks-1; i++ {
		p1 := [2]float64{chunkX[i], smoothY[i]}
		p2 := [2]float64{chunkX[i+1], smoothY[i+1]}
		l.moonVertices = append(l.moonVertices, p1, p2)

		edge := box2d.NewB2EdgeShape()
		edge.M_vertex1 = box2d.MakeB2Vec2(p1[0], p1[1])
		edge.M_vertex2 = box2d.MakeB2Vec2(p2[0], p2[1])

		edgeFixture := box2d.MakeB2FixtureDef()
		edgeFixture.Shape = edge
		edgeFixture.Density = 0.0
		edgeFixture.Friction = 0.1
		moonBody.CreateFixtureFromDef(&edgeFixture)
	}

	// Lander body
	initialX := start.AtVec(0)
	initialY := start.AtVec(1)
	landerDef := box2d.MakeB2BodyDef()
	landerDef.Type = 2 // Dynamic body
	landerDef.Position = box2d.MakeB2Vec2(initialX, initialY)
	landerDef.Angle = 0.0

	landerBody := l.world.CreateBody(&landerDef)
	l.lander = landerBody

	landerShape := box2d.NewB2PolygonShape()
	vertices := make([]box2d.B2Vec2, len(LanderPoly))
	for i := 0; i < len(LanderPoly); i++ {
		vertices[i] = box2d.MakeB2Vec2(
			LanderPoly[i][0]/Scale,
			LanderPoly[i][1]/Scale,
		)
	}
	landerShape.Set(vertices, len(vertices))

	landerFix := box2d.MakeB2FixtureDef()
	landerFix.Shape = landerShape
	landerFix.Density = 5.0
	landerFix.Friction = 0.1
	landerFix.Restitution = 0.0
	filter := box2d.MakeB2Filter()
	filter.CategoryBits = 0x0010
	filter.MaskBits = 0x001
	landerFix.Filter = filter
	landerBody.CreateFixtureFromDef(&landerFix)

	// Random initial force on the centre of the lander
	initialRandom := start.AtVec(2)
	initialForceX := (l.rng.Rand() * 2 * initialRandom) - initialRandom
	initialForceY := (l.rng.Rand() * 2 * initialRandom) - initialRandom
	initialForce := box2d.MakeB2Vec2(initialForceX, initialForceY)
	l.lander.ApplyForceToCenter(initialForce, true)

	// Lander legs
	l.legs = make([]*box2d.B2Body, 0, 2)
	for _, i := range []float64{-1.0, 1.0} {
		legDef := box2d.NewB2BodyDef()
		legDef.Type = 2 // Dynamic body
		legDef.Position = box2d.MakeB2Vec2(initialX-i*LegAway/Scale, initialY)
		legDef.Angle = i * 0.05

		leg := l.world.CreateBody(legDef)
		l.legs = append(l.legs, leg)

		legShape := box2d.NewB2PolygonShape()
		legShape.SetAsBox(LegW/Scale, LegH/Scale)

		legFix := box2d.MakeB2FixtureDef()
		legFix.Density = 1.0
		legFix.Restitution = 0.0
		legFix.Shape = legShape
		filter := box2d.MakeB2Filter()
		filter.CategoryBits = 0x0020
		filter.MaskBits = 0x001
		legFix.Filter = filter
		leg.CreateFixtureFromDef(&legFix)

		// Revolute joint for attaching the leg to the lander
		rjd := box2d.MakeB2RevoluteJointDef()
		rjd.BodyA = l.lander
		rjd.BodyB = leg
		rjd.LocalAnchorA = box2d.MakeB2Vec2(0., 0.)
		rjd.LocalAnchorB = box2d.MakeB2Vec2(i*LegAway/Scale, LegDown/Scale)
		rjd.EnableMotor = true
		rjd.EnableLimit = true
		rjd.MaxMotorTorque = LegSpringTorque
		rjd.MotorSpeed = 0.7 * i

		if i < 0 {
			rjd.LowerAngle = 0.9 - 0.5
			rjd.UpperAngle = 0.9
		} else {
			rjd.LowerAngle = -0.9
			rjd.UpperAngle = -0.9 + 0.5
		}
		l.world.CreateJoint(&rjd)
	}
	l.leg1GroundContact = false
	l.leg2GroundContact = false

	// One idle step settles the initial force into the first
	// observation
	step, err := l.Step(NoOp)
	if err != nil {
		return timestep.TimeStep{}, fmt.Errorf("reset: %v", err)
	}
	if step.Last() {
		return timestep.TimeStep{}, fmt.Errorf("reset: environment ended " +
			"as soon as it began")
	}

	first := timestep.New(timestep.First, 0.0, step.Observation, 0)
	l.prevStep = first
	return first, nil
}

// Step takes one environmental step given a discrete action and
// returns the resulting timestep.
func (l *LunarLander) Step(action int) (timestep.TimeStep, error) {
	var main, side float64
	switch action {
	case NoOp:
	case FireLeft:
		side = -1.0
	case FireMain:
		main = 1.0
	case FireRight:
		side = 1.0
	default:
		return timestep.TimeStep{}, fmt.Errorf("step: illegal action %v, "+
			"expected action in [0, %v)", action, NumActions)
	}

	tip := [2]float64{
		math.Sin(l.lander.GetAngle()),
		math.Cos(l.lander.GetAngle()),
	}
	sideDir := [2]float64{-tip[1], tip[0]}
	var dispersion [2]float64
	for i := range dispersion {
		dispersion[i] = l.rng.Rand() / Scale
	}

	// Main engine
	mPower := 0.0
	if main > 0.0 {
		mPower = (floatutils.Clip(main, 0.0, 1.0) + 1.0) * 0.5

		ox := tip[0]*(4.0/Scale+2.0*dispersion[0]) + sideDir[0]*dispersion[1]
		oy := -tip[1]*(4.0/Scale+2.0*dispersion[0]) - sideDir[1]*dispersion[1]

		impulsePos := box2d.MakeB2Vec2(
			l.lander.GetPosition().X+ox,
			l.lander.GetPosition().Y+oy,
		)
		linearImpulse := box2d.MakeB2Vec2(
			-ox*MainEnginePower*mPower,
			-oy*MainEnginePower*mPower,
		)
		l.lander.ApplyLinearImpulse(linearImpulse, impulsePos, true)
	}
	l.mPower = mPower

	// Orientation engines
	sPower := 0.0
	if math.Abs(side) > 0.5 {
		direction := floatutils.Sign(side)
		sPower = floatutils.Clip(math.Abs(side), 0.5, 1.0)

		ox := tip[0]*dispersion[0] + sideDir[0]*(3.0*dispersion[1]+
			direction*SideEngineAway/Scale)
		oy := -tip[1]*dispersion[0] - sideDir[1]*(3.0*dispersion[1]+
			direction*SideEngineAway/Scale)

		impulsePos := box2d.MakeB2Vec2(
			l.lander.GetPosition().X+ox-tip[0]*17.0/Scale,
			l.lander.GetPosition().Y+oy+tip[1]*SideEngineHeight/Scale,
		)
		linearImpulse := box2d.MakeB2Vec2(
			-ox*SideEnginePower*sPower,
			-oy*SideEnginePower*sPower,
		)
		l.lander.ApplyLinearImpulse(linearImpulse, impulsePos, true)
	}
	l.sPower = sPower

	l.world.Step(1.0/FPS, 6*int(Scale), 2*int(Scale))

	// Calculate the state observation
	pos := l.lander.GetPosition()
	vel := l.lander.GetLinearVelocity()

	var leg1GroundContact, leg2GroundContact float64
	if l.leg1GroundContact {
		leg1GroundContact = 1.0
	}
	if l.leg2GroundContact {
		leg2GroundContact = 1.0
	}

	state := []float64{
		(pos.X - ViewportW/Scale/2.0) / (ViewportW / Scale / 2.0),
		(pos.Y - (l.helipadY + LegDown/Scale)) / (ViewportH/Scale - l.helipadY),
		vel.X * (ViewportW / Scale / 2.0) / FPS,
		vel.Y * (ViewportH / Scale / 2.0) / FPS,
		floatutils.Wrap(l.lander.GetAngle(), l.angleBounds.Min,
			l.angleBounds.Max),
		20.0 * l.lander.GetAngularVelocity() / FPS,
		leg1GroundContact,
		leg2GroundContact,
	}
	stateVec := mat.NewVecDense(StateObservations, state)

	reward := l.GetReward(l.prevStep.Observation, action, stateVec)

	stepType := timestep.Mid
	if l.terminal(stateVec) {
		stepType = timestep.Terminal
	}

	t := timestep.New(stepType, reward, stateVec, l.prevStep.Number+1)
	if l.ender != nil {
		l.ender.End(&t)
	}

	l.prevStep = t
	return t, nil
}

// terminal returns whether the episode has reached a terminal state of
// the dynamics: the lander crashed, left the screen, or came to rest.
func (l *LunarLander) terminal(state mat.Vector) bool {
	if l.gameOver || math.Abs(state.AtVec(0)) >= 1.0 {
		return true
	}
	return !l.lander.IsAwake()
}

// CurrentTimeStep returns the timestep of the last call to Step
func (l *LunarLander) CurrentTimeStep() timestep.TimeStep {
	return l.prevStep
}

// DiscountSpec returns the environment's discounting specification
func (l *LunarLander) DiscountSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{l.discount})

	return environment.NewSpec(shape, environment.Discount, bound, bound,
		environment.Continuous)
}

// ObservationSpec returns the environment's observation specification
func (l *LunarLander) ObservationSpec() environment.Spec {
	shape := mat.NewVecDense(StateObservations, nil)

	lowerBound := mat.NewVecDense(StateObservations, []float64{
		-1.,
		0.,
		l.velocityBounds.Min,
		l.velocityBounds.Min,
		l.angleBounds.Min,
		l.velocityBounds.Min,
		0.,
		0.,
	})

	upperBound := mat.NewVecDense(StateObservations, []float64{
		1.,
		(ViewportH/Scale - (l.helipadY + LegDown)) /
			(ViewportH/Scale - l.helipadY),
		l.velocityBounds.Max,
		l.velocityBounds.Max,
		l.angleBounds.Max,
		l.velocityBounds.Max,
		1.,
		1.,
	})

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Continuous)
}

// ActionSpec returns the environment's action specification
func (l *LunarLander) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(NoOp)})
	upperBound := mat.NewVecDense(1, []float64{float64(NumActions - 1)})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Discrete)
}

func validateStart(state mat.Vector, xBounds, yBounds r1.Interval) error {
	if state.Len() != 3 {
		return fmt.Errorf("starting values should be 3-dimensional")
	}

	if state.AtVec(0) > xBounds.Max || state.AtVec(0) < xBounds.Min {
		return fmt.Errorf("x position out of bounds, expected x ϵ (%v, %v) "+
			"but got x = %v", xBounds.Min, xBounds.Max, state.AtVec(0))
	}

	if state.AtVec(1) > yBounds.Max || state.AtVec(1) < yBounds.Min {
		return fmt.Errorf("y position out of bounds, expected y ϵ (%v, %v) "+
			"but got y = %v", yBounds.Min, yBounds.Max, state.AtVec(1))
	}

	return nil
}
