package profile

type NotFoundError string

func (e NotFoundError) Error() string {
	return "config/named/profile: Profile named " + string(e) + " not found"
}
