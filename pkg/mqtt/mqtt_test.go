package mqtt

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/benmeehan/drone-examples/internal/mocks"
)

func TestMqttService_InitializeCACertificateMissing(t *testing.T) {
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("ReadFileRaw", "ca.pem").Return(nil, errors.New("no such file"))
	s := NewMqttService(fileClient)

	err := s.Initialize("ssl://localhost:8883", "test", "ca.pem")

	assert.ErrorContains(t, err, "failed to read CA certificate")
	fileClient.AssertExpectations(t)
}

func TestMqttService_InitializeInvalidCACertificate(t *testing.T) {
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("ReadFileRaw", "ca.pem").Return([]byte("not a certificate"), nil)
	s := NewMqttService(fileClient)

	err := s.Initialize("ssl://localhost:8883", "test", "ca.pem")

	assert.EqualError(t, err, "failed to append CA certificate")
}

func TestMqttService_Delegates(t *testing.T) {
	client := new(mocks.MockMQTTClient)
	token := new(mocks.MockToken)
	client.On("Publish", "drone/position", byte(1), false, []byte("{}")).Return(token)
	client.On("Disconnect", uint(250)).Return()
	s := &MqttService{client: client}

	assert.Equal(t, token, s.Publish("drone/position", 1, false, []byte("{}")))
	s.Disconnect(250)

	client.AssertExpectations(t)
}
