package domain

type RoomID string

// ParticipantsPath is where the durability sink keeps a room's participants.
func (id RoomID) ParticipantsPath() string {
	return "rooms/" + string(id) + "/participants"
}

func (id RoomID) MessagesPath() string {
	return "rooms/" + string(id) + "/messages"
}

func (id RoomID) Path() string {
	return "rooms/" + string(id)
}
