package staff

// Member is one entry of the staff roster.
type Member struct {
	Number    string // staff number, the stable external identifier
	Name      string
	EmailName string // name used in email greetings
	Email     string // corporate email
	Team      string
}

// Roster is the current staff list. Members not on it are treated as departed.
type Roster struct {
	members  []Member
	byNumber map[string]int
}

func NewRoster(members []Member) *Roster {
	r := &Roster{
		members:  members,
		byNumber: make(map[string]int, len(members)),
	}
	for i, m := range members {
		if _, exists := r.byNumber[m.Number]; !exists {
			r.byNumber[m.Number] = i
		}
	}
	return r
}

func (r *Roster) Contains(number string) bool {
	_, ok := r.byNumber[number]
	return ok
}

func (r *Roster) Get(number string) (Member, bool) {
	i, ok := r.byNumber[number]
	if !ok {
		return Member{}, false
	}
	return r.members[i], true
}

func (r *Roster) Members() []Member {
	return r.members
}

func (r *Roster) Len() int {
	return len(r.members)
}

// Lookup returns the members whose numbers are listed, in roster order.
func (r *Roster) Lookup(numbers []string) []Member {
	wanted := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		wanted[n] = true
	}
	var found []Member
	for _, m := range r.members {
		if wanted[m.Number] {
			found = append(found, m)
		}
	}
	return found
}

// TeamMembers returns the members of team, in roster order.
func (r *Roster) TeamMembers(team string) []Member {
	var found []Member
	for _, m := range r.members {
		if m.Team == team {
			found = append(found, m)
		}
	}
	return found
}
