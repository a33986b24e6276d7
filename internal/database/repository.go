package database

type ManorRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	CreateRoom(params CreateRoomParams) (Room, error)
	ListRoomsByOwner(ownerId int) ([]Room, error)
	GetActiveRoomByCode(roomCode string) (Room, error)
	AddParticipant(roomId, userId int, role string) (Participant, error)
	GetActiveParticipant(roomId, userId int) (Participant, error)
	TouchParticipantLastActive(participantId int) error
	ListActiveParticipants(roomId int) ([]ParticipantUser, error)
	CreateAnnotation(params CreateAnnotationParams) (int, error)
	GetAnnotation(annotationId int) (Annotation, error)
	GetAnnotationWithAuthor(annotationId int) (Annotation, error)
	UpdateAnnotation(annotationId int, params UpdateAnnotationParams) error
	DeleteAnnotation(annotationId int) error
}
