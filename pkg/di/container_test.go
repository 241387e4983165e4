package di

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/ssargent/sdds/pkg/api"
)

type stubStarter struct{}

func (stubStarter) StartServer(context.Context, api.DocumentArchive, api.ServerConfig, *logrus.Entry) error {
	return nil
}

type stubServerFactory struct{}

func (stubServerFactory) CreateServerStarter() api.ServerStarter { return stubStarter{} }

type stubArchiveFactory struct{}

func (stubArchiveFactory) OpenArchive(string, *logrus.Entry) (api.ArchiveStore, error) {
	return nil, nil
}

func TestNewContainer(t *testing.T) {
	c := NewContainer()
	assert.IsType(t, &api.DefaultArchiveFactory{}, c.GetArchiveFactory())
	assert.IsType(t, &api.DefaultServerFactory{}, c.GetServerFactory())
}

func TestContainerOverrides(t *testing.T) {
	c := NewContainer()
	c.SetArchiveFactory(stubArchiveFactory{})
	c.SetServerFactory(stubServerFactory{})

	assert.Equal(t, stubArchiveFactory{}, c.GetArchiveFactory())
	assert.Equal(t, stubStarter{}, c.GetServerFactory().CreateServerStarter())
}
