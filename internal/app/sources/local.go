package sources

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/form3tech-oss/pact-provider/internal/app/pact"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// LocalFiles loads the *.json files of a folder. Sub folders are not searched.
type LocalFiles struct {
	folder string
	opts   options
}

func NewLocalFiles(folder string, opts ...Option) *LocalFiles {
	return &LocalFiles{folder: folder, opts: newOptions(opts)}
}

func (l *LocalFiles) LoadPacts(_ context.Context, provider, consumer string) ([]pact.Pact, error) {
	l.opts.log.WithFields(log.Fields{
		"provider": provider,
		"consumer": consumerOrAny(consumer),
	}).Infof("loading pacts from %s", l.folder)

	info, err := os.Stat(l.folder)
	if err != nil {
		return nil, errors.Wrapf(err, "folder '%s' does not exist", l.folder)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("folder '%s' is not a directory", l.folder)
	}

	entries, err := os.ReadDir(l.folder)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list folder '%s'", l.folder)
	}

	var docs []document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(l.folder, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			l.opts.log.WithField("file", path).WithError(err).Warn("could not be read")
			continue
		}
		docs = append(docs, document{name: path, data: data})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].name < docs[j].name })

	pacts := parse(l.opts, docs, provider, consumer)
	l.opts.log.Infof("loaded %d pacts from %s", len(pacts), l.folder)
	return pacts, nil
}

func (l *LocalFiles) String() string {
	return "local files: " + l.folder
}
