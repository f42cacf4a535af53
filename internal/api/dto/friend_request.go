package dto

type SubmitFriendRequestDTO struct {
	To uint64 `json:"to" binding:"required"`
}

type FriendRequestDTO struct {
	ID        string `json:"id"`
	From      uint64 `json:"from"`
	FromName  string `json:"fromName,omitempty"`
	To        uint64 `json:"to"`
	ToName    string `json:"toName,omitempty"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type FriendDTO struct {
	UserID    uint64 `json:"userId"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatarUrl"`
	Since     string `json:"since"`
}
