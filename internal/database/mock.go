package database

import (
	"github.com/stretchr/testify/mock"
)

type MockManorRepository struct {
	mock.Mock
}

func (m *MockManorRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockManorRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockManorRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockManorRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockManorRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	args := m.Called(params)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockManorRepository) ListRoomsByOwner(ownerId int) ([]Room, error) {
	args := m.Called(ownerId)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockManorRepository) GetActiveRoomByCode(roomCode string) (Room, error) {
	args := m.Called(roomCode)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockManorRepository) AddParticipant(roomId, userId int, role string) (Participant, error) {
	args := m.Called(roomId, userId, role)
	return args.Get(0).(Participant), args.Error(1)
}
func (m *MockManorRepository) GetActiveParticipant(roomId, userId int) (Participant, error) {
	args := m.Called(roomId, userId)
	return args.Get(0).(Participant), args.Error(1)
}
func (m *MockManorRepository) TouchParticipantLastActive(participantId int) error {
	args := m.Called(participantId)
	return args.Error(0)
}
func (m *MockManorRepository) ListActiveParticipants(roomId int) ([]ParticipantUser, error) {
	args := m.Called(roomId)
	return args.Get(0).([]ParticipantUser), args.Error(1)
}
func (m *MockManorRepository) CreateAnnotation(params CreateAnnotationParams) (int, error) {
	args := m.Called(params)
	return args.Int(0), args.Error(1)
}
func (m *MockManorRepository) GetAnnotation(annotationId int) (Annotation, error) {
	args := m.Called(annotationId)
	return args.Get(0).(Annotation), args.Error(1)
}
func (m *MockManorRepository) GetAnnotationWithAuthor(annotationId int) (Annotation, error) {
	args := m.Called(annotationId)
	return args.Get(0).(Annotation), args.Error(1)
}
func (m *MockManorRepository) UpdateAnnotation(annotationId int, params UpdateAnnotationParams) error {
	args := m.Called(annotationId, params)
	return args.Error(0)
}
func (m *MockManorRepository) DeleteAnnotation(annotationId int) error {
	args := m.Called(annotationId)
	return args.Error(0)
}
