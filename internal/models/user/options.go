package user

func WithRole(role string) UserOption {
	return func(u *User) { u.Role = role }
}

func WithName(name string) UserOption {
	return func(u *User) { u.Profile.Name = name }
}

func WithBio(bio string) UserOption {
	return func(u *User) { u.Profile.Bio = bio }
}

func WithAvatarURL(url string) UserOption {
	return func(u *User) { u.Profile.AvatarURL = url }
}

func WithLocation(location string) UserOption {
	return func(u *User) { u.Profile.Location = location }
}

func WithWebsite(website string) UserOption {
	return func(u *User) { u.Profile.Website = website }
}
