package mocks

import (
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/mock"
)

// MockMQTTClient is a mock implementation of the pkg/mqtt MQTTClient interface
type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Connect() mqtt.Token {
	args := m.Called()
	return args.Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

// PublishedPayloads returns the payloads of every recorded Publish call to topic.
func (m *MockMQTTClient) PublishedPayloads(topic string) [][]byte {
	var payloads [][]byte
	for _, call := range m.Calls {
		if call.Method != "Publish" || call.Arguments.String(0) != topic {
			continue
		}
		if payload, ok := call.Arguments.Get(3).([]byte); ok {
			payloads = append(payloads, payload)
		}
	}
	return payloads
}
