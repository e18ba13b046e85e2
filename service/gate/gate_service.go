package gate

import (
	"context"
	"encoding/json"
	"strconv"

	"termpool/core"

	"github.com/fox-one/pkg/property"
	"github.com/qinix/gods/lists/arraylist"
	"github.com/sirupsen/logrus"
)

const (
	// GateKeySuspendedScopes suspended scopes
	GateKeySuspendedScopes = "suspended_scopes"
)

type gateService struct {
	propertyStore property.Store
}

// New new gate service
func New(propertyStr property.Store) core.IGateService {
	return &gateService{
		propertyStore: propertyStr,
	}
}

func (s *gateService) Suspend(ctx context.Context, scope core.OperationScope) error {
	scopes, err := s.getSuspendedScopes(ctx)
	if err != nil {
		return err
	}

	if !s.isScopeExists(ctx, scope, scopes) {
		return s.appendSuspendedScope(ctx, scope, scopes)
	}

	return nil
}

func (s *gateService) Resume(ctx context.Context, scope core.OperationScope) error {
	scopes, err := s.getSuspendedScopes(ctx)
	if err != nil {
		return err
	}

	if s.isScopeExists(ctx, scope, scopes) {
		return s.removeSuspendedScope(ctx, scope, scopes)
	}

	return nil
}

func (s *gateService) Suspended(ctx context.Context, scope core.OperationScope) (bool, error) {
	paused, err := s.paused(ctx)
	if err != nil {
		return false, err
	}

	if paused {
		return true, nil
	}

	scopes, err := s.getSuspendedScopes(ctx)
	if err != nil {
		return false, err
	}

	return s.isScopeExists(ctx, scope, scopes), nil
}

func (s *gateService) Guard(ctx context.Context, scope core.OperationScope) error {
	suspended, err := s.Suspended(ctx, scope)
	if err != nil {
		return err
	}

	if suspended {
		return core.ErrSystemPaused
	}

	return nil
}

func (s *gateService) PauseAll(ctx context.Context) error {
	return s.propertyStore.Save(ctx, core.PauseKey, true)
}

func (s *gateService) ResumeAll(ctx context.Context) error {
	return s.propertyStore.Save(ctx, core.PauseKey, false)
}

func (s *gateService) paused(ctx context.Context) (bool, error) {
	v, err := s.propertyStore.Get(ctx, core.PauseKey)
	if err != nil {
		return false, err
	}

	b, _ := strconv.ParseBool(v.String())
	return b, nil
}

func (s *gateService) getSuspendedScopes(ctx context.Context) (*arraylist.List, error) {
	v, err := s.propertyStore.Get(ctx, GateKeySuspendedScopes)
	if err != nil {
		return nil, err
	}
	scopeStr := v.String()

	var scopes []string
	err = json.Unmarshal([]byte(scopeStr), &scopes)
	if err != nil {
		return arraylist.New(), nil
	}

	l := arraylist.New()
	size := len(scopes)
	for i := 0; i < size; i++ {
		l.Add(scopes[i])
	}

	return l, nil
}

func (s *gateService) isScopeExists(ctx context.Context, scope core.OperationScope, scopes *arraylist.List) bool {
	return scopes.Contains(scope.String())
}

func (s *gateService) appendSuspendedScope(ctx context.Context, scope core.OperationScope, scopes *arraylist.List) error {
	scopes.Add(scope.String())
	bs, err := scopes.ToJSON()
	if err != nil {
		return err
	}

	logrus.Infoln("suspended_scopes:", string(bs))

	return s.propertyStore.Save(ctx, GateKeySuspendedScopes, string(bs))
}

func (s *gateService) removeSuspendedScope(ctx context.Context, scope core.OperationScope, scopes *arraylist.List) error {
	scopes.Remove(scopes.IndexOf(scope.String()))
	bs, err := scopes.ToJSON()
	if err != nil {
		return err
	}

	logrus.Infoln("suspended_scopes:", string(bs))

	return s.propertyStore.Save(ctx, GateKeySuspendedScopes, string(bs))
}
