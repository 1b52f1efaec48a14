package valueobjects

import "fmt"

// Direction is the routing direction of a relayed message.
type Direction string

const (
	// DirectionToUser mirrors a staff thread message into the applicant's DM.
	DirectionToUser Direction = "to_user"
	// DirectionToStaff mirrors an applicant DM into the staff thread.
	DirectionToStaff Direction = "to_staff"
)

func NewDirection(s string) (Direction, error) {
	d := Direction(s)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid relay direction: %s", s)
	}
	return d, nil
}

func (d Direction) String() string {
	return string(d)
}

func (d Direction) IsValid() bool {
	return d == DirectionToUser || d == DirectionToStaff
}

func (d Direction) Opposite() Direction {
	if d == DirectionToUser {
		return DirectionToStaff
	}
	return DirectionToUser
}
