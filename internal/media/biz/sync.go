package biz

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lk2023060901/media-path/internal/pkg/logger"
	"github.com/lk2023060901/media-path/internal/pkg/metrics"
)

// AliasState 同步后的别名状态
type AliasState struct {
	Alias   string
	Mapping *AliasMapping
}

// HasAlias 是否存在别名
func (s AliasState) HasAlias() bool {
	return s.Alias != ""
}

func (s AliasState) String() string {
	if s.HasAlias() {
		return "has_alias"
	}
	return "no_alias"
}

// PathSynchronizer 维护每个媒体下载路径在每种语言下至多一条别名记录
type PathSynchronizer struct {
	aliases AliasRepo
	logger  *logger.Logger
}

// NewPathSynchronizer 创建下载路径同步器
func NewPathSynchronizer(aliases AliasRepo, log *logger.Logger) *PathSynchronizer {
	return &PathSynchronizer{aliases: aliases, logger: log}
}

func aliasLangcode(m *Media, langcode string) string {
	if langcode != "" {
		return langcode
	}
	if m.Langcode != "" {
		return m.Langcode
	}
	return LangNotSpecified
}

// Sync 写入媒体下载路径的别名，须在别名校验通过且媒体已保存之后调用
// 相同输入重复执行不产生变化
func (s *PathSynchronizer) Sync(ctx context.Context, m *Media, alias, langcode string) (AliasState, error) {
	if m == nil || m.IsNew() {
		return AliasState{}, fmt.Errorf("sync download path: media is not persisted")
	}

	path := DownloadPath(m.ID)
	langcode = aliasLangcode(m, langcode)
	log := s.logger.WithContext(ctx).With(
		zap.Uint("media_id", m.ID),
		zap.String("path", path),
		zap.String("langcode", langcode))

	existing, err := s.aliases.FindByPath(ctx, path, langcode)
	if err != nil {
		return AliasState{}, fmt.Errorf("find aliases for %s: %w", path, err)
	}

	if alias == "" {
		if len(existing) > 0 {
			if err := s.aliases.Delete(ctx, existing...); err != nil {
				return AliasState{}, fmt.Errorf("delete aliases for %s: %w", path, err)
			}
			log.Info("download path cleared", zap.Int("removed", len(existing)))
		}
		state := AliasState{}
		metrics.ObserveAliasSync(state.String())
		return state, nil
	}

	s.warnDuplicate(ctx, log, alias, path)

	var mapping *AliasMapping
	if len(existing) == 0 {
		mapping = &AliasMapping{Path: path, Alias: alias, Langcode: langcode}
		if err := s.aliases.Create(ctx, mapping); err != nil {
			return AliasState{}, fmt.Errorf("create alias for %s: %w", path, err)
		}
		log.Info("download path created", zap.String("alias", alias))
	} else {
		mapping = existing[0]
		if mapping.Alias != alias {
			mapping.Alias = alias
			if err := s.aliases.Update(ctx, mapping); err != nil {
				return AliasState{}, fmt.Errorf("update alias for %s: %w", path, err)
			}
			log.Info("download path updated", zap.String("alias", alias), zap.Uint("alias_id", mapping.ID))
		}
		if extra := existing[1:]; len(extra) > 0 {
			if err := s.aliases.Delete(ctx, extra...); err != nil {
				return AliasState{}, fmt.Errorf("delete duplicate aliases for %s: %w", path, err)
			}
			log.Warn("removed duplicate download path rows", zap.Int("removed", len(extra)))
		}
	}

	state := AliasState{Alias: alias, Mapping: mapping}
	metrics.ObserveAliasSync(state.String())
	return state, nil
}

// warnDuplicate 同一别名指向其他路径时只记录告警，不阻止写入
func (s *PathSynchronizer) warnDuplicate(ctx context.Context, log *logger.Logger, alias, path string) {
	others, err := s.aliases.FindByAlias(ctx, alias)
	if err != nil {
		log.Warn("failed to check alias uniqueness", zap.Error(err))
		return
	}
	for _, o := range others {
		if o.Path != path {
			log.Warn("alias already mapped to another path",
				zap.String("alias", alias),
				zap.String("other_path", o.Path),
				zap.String("other_langcode", o.Langcode))
		}
	}
}

// Purge 删除媒体下载路径在所有语言下的别名
func (s *PathSynchronizer) Purge(ctx context.Context, mediaID uint) error {
	path := DownloadPath(mediaID)
	existing, err := s.aliases.FindByPath(ctx, path, "")
	if err != nil {
		return fmt.Errorf("find aliases for %s: %w", path, err)
	}
	if len(existing) == 0 {
		return nil
	}
	if err := s.aliases.Delete(ctx, existing...); err != nil {
		return fmt.Errorf("delete aliases for %s: %w", path, err)
	}
	s.logger.WithContext(ctx).Info("download paths purged",
		zap.Uint("media_id", mediaID),
		zap.Int("removed", len(existing)))
	return nil
}

// Current 返回媒体下载路径当前的别名，没有时为空
func (s *PathSynchronizer) Current(ctx context.Context, m *Media, langcode string) (string, error) {
	existing, err := s.aliases.FindByPath(ctx, DownloadPath(m.ID), aliasLangcode(m, langcode))
	if err != nil {
		return "", err
	}
	if len(existing) == 0 {
		return "", nil
	}
	return existing[0].Alias, nil
}
