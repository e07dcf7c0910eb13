package service

import (
	"github.com/zlnvch/canvashub/cache"
	"github.com/zlnvch/canvashub/mq"
	"github.com/zlnvch/canvashub/store"
	"golang.org/x/oauth2"
)

type Service struct {
	Store        store.ProjectStore
	Cache        cache.ProjectCache
	MQ           mq.MessageQueue
	OAuthConfigs map[string]*oauth2.Config
	JWTSecret    []byte
}

func NewService(
	store store.ProjectStore,
	cache cache.ProjectCache,
	mq mq.MessageQueue,
	oauthConfigs map[string]*oauth2.Config,
	jwtSecret []byte,
) (*Service, error) {
	oauthConfigs, err := addOauthEndpointsAndScopes(oauthConfigs)
	if err != nil {
		return nil, err
	}

	return &Service{
		Store:        store,
		Cache:        cache,
		MQ:           mq,
		OAuthConfigs: oauthConfigs,
		JWTSecret:    jwtSecret,
	}, nil
}
