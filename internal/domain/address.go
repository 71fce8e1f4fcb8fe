package domain

// Address is supplied by the external address lookup and only ever copied
// into an order snapshot.
type Address struct {
	ID          int64
	UserID      int64
	Name        string
	Phone       string
	AddressLine string
	Ward        string
	District    string
	Province    string
}

// Customer is the identity provider's view of a user, copied into the order
// snapshot at creation time.
type Customer struct {
	ID    int64
	Name  string
	Email string
	Phone string
}

// Actor is whoever performs a mutation: a customer or a privileged staff
// member. Privileged actors may manage any order and cancel from any
// non-terminal state.
type Actor struct {
	UserID     *int64
	Privileged bool
}

func StaffActor() Actor {
	return Actor{Privileged: true}
}

func CustomerActor(userID int64) Actor {
	return Actor{UserID: &userID}
}
