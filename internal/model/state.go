package model

// Prize is something a user can win on completing a card
type Prize struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Redeemed bool   `json:"redeemed"`
}

// AdminCredentials is the single admin login. Password is either plain text or a bcrypt hash.
type AdminCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AppState is the whole persisted document
type AppState struct {
	Users  []User           `json:"users"`
	Prizes []Prize          `json:"prizes"`
	Admin  AdminCredentials `json:"admin"`
}

// NewAppState returns an empty state owned by admin
func NewAppState(admin AdminCredentials) *AppState {
	return &AppState{
		Users:  []User{},
		Prizes: []Prize{},
		Admin:  admin,
	}
}

// Normalize replaces nil collections so the document always serializes them as arrays
func (s *AppState) Normalize() {
	if s.Users == nil {
		s.Users = []User{}
	}
	if s.Prizes == nil {
		s.Prizes = []Prize{}
	}
	for i := range s.Users {
		if s.Users[i].Stamps < 0 {
			s.Users[i].Stamps = 0
		}
		if s.Users[i].Stamps > MaxStamps {
			s.Users[i].Stamps = MaxStamps
		}
	}
}

// Clone returns a deep copy of the state
func (s *AppState) Clone() *AppState {
	c := &AppState{
		Users:  make([]User, len(s.Users)),
		Prizes: make([]Prize, len(s.Prizes)),
		Admin:  s.Admin,
	}
	copy(c.Prizes, s.Prizes)
	for i, u := range s.Users {
		c.Users[i] = u.Clone()
	}
	return c
}
