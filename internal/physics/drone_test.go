package physics

import (
	"math"
	"testing"

	"github.com/san-kum/ctrlsim/internal/dynamo"
)

func TestDroneStateDim(t *testing.T) {
	d := NewDrone2D()
	if d.StateDim() != 6 {
		t.Errorf("expected 6 states, got %d", d.StateDim())
	}
	if d.ControlDim() != 2 {
		t.Errorf("expected 2 controls, got %d", d.ControlDim())
	}
}

func TestDroneDefaultInertia(t *testing.T) {
	d := NewDrone2D()
	want := (1.0 / 3.0) * 5 * 0.2 * 0.2
	if math.Abs(d.Inertia-want) > 1e-12 {
		t.Errorf("expected inertia %f, got %f", want, d.Inertia)
	}
}

func TestDroneHover(t *testing.T) {
	d := NewDrone2D()
	hover := d.HoverThrust()

	x := dynamo.State{0, 5, 0, 0, 0, 0}
	dx := d.Derive(x, dynamo.Control{hover, hover}, 0.0)

	if math.Abs(dx[DroneVY]) > 1e-9 {
		t.Errorf("vertical acceleration should be ~0, got %f", dx[DroneVY])
	}
	if math.Abs(dx[DroneVX]) > 1e-9 {
		t.Errorf("horizontal acceleration should be ~0, got %f", dx[DroneVX])
	}
	if math.Abs(dx[DroneOmega]) > 1e-9 {
		t.Errorf("angular acceleration should be ~0, got %f", dx[DroneOmega])
	}
}

func TestDroneFreefall(t *testing.T) {
	d := NewDrone2D()

	dx := d.Derive(dynamo.State{0, 5, 0, 0, 0, 0}, dynamo.Control{0, 0}, 0.0)
	if math.Abs(dx[DroneVY]+d.Gravity) > 1e-9 {
		t.Errorf("expected ay=%f, got %f", -d.Gravity, dx[DroneVY])
	}
}

func TestDroneTorque(t *testing.T) {
	d := NewDrone2D()

	dx := d.Derive(dynamo.State{0, 5, 0, 0, 0, 0}, dynamo.Control{0, 5}, 0.0)
	if dx[DroneOmega] <= 0 {
		t.Errorf("angular acceleration should be positive, got %f", dx[DroneOmega])
	}

	dx = d.Derive(dynamo.State{0, 5, 0, 0, 0, 0}, dynamo.Control{5, 0}, 0.0)
	if dx[DroneOmega] >= 0 {
		t.Errorf("angular acceleration should be negative, got %f", dx[DroneOmega])
	}
}

func TestDroneTiltPushesSideways(t *testing.T) {
	d := NewDrone2D()

	dx := d.Derive(dynamo.State{0, 5, 0.1, 0, 0, 0}, dynamo.Control{20, 20}, 0.0)
	if dx[DroneVX] <= 0 {
		t.Errorf("positive tilt should accelerate +x, got %f", dx[DroneVX])
	}
}

func TestDroneGroundContact(t *testing.T) {
	d := NewDrone2D()

	x := d.Constrain(dynamo.State{1, -0.5, 0, 2, -3, 0})
	if x[DroneY] != 0 || x[DroneVY] != 0 {
		t.Errorf("expected ground clamp, got %v", x)
	}
	if x[DroneVX] != 2 {
		t.Error("ground contact should not touch horizontal velocity")
	}

	x = d.Constrain(dynamo.State{0, 1, 0, 0, -3, 0})
	if x[DroneY] != 1 || x[DroneVY] != -3 {
		t.Errorf("airborne state should be unchanged, got %v", x)
	}
}

func TestDroneValidate(t *testing.T) {
	d := NewDrone2D()
	if err := d.Validate(); err != nil {
		t.Fatalf("default drone invalid: %v", err)
	}

	d.Inertia = 0
	if err := d.Validate(); err == nil {
		t.Error("expected error for zero inertia")
	}
}

func TestDroneParams(t *testing.T) {
	d := NewDrone2D()
	if err := d.SetParam("mass", 2); err != nil {
		t.Fatal(err)
	}
	if d.GetParams()["mass"] != 2 {
		t.Error("SetParam did not update mass")
	}
	if err := d.SetParam("wingspan", 1); err == nil {
		t.Error("expected error for unknown param")
	}
}

func TestVerticalDrone(t *testing.T) {
	d := NewVerticalDrone()

	dx := d.Derive(dynamo.State{5, 0}, dynamo.Control{d.HoverThrust()}, 0)
	if math.Abs(dx[1]) > 1e-9 {
		t.Errorf("hover thrust should cancel gravity, got %f", dx[1])
	}

	x := d.Constrain(dynamo.State{-0.1, -2})
	if x[0] != 0 || x[1] != 0 {
		t.Errorf("expected ground clamp, got %v", x)
	}

	d.Mass = 0
	if err := d.Validate(); err == nil {
		t.Error("expected error for zero mass")
	}
}
