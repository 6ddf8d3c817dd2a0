package cluster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/cli-utils/pkg/kstatus/polling"
	"sigs.k8s.io/cli-utils/pkg/kstatus/polling/aggregator"
	"sigs.k8s.io/cli-utils/pkg/kstatus/polling/collector"
	pollEvent "sigs.k8s.io/cli-utils/pkg/kstatus/polling/event"
	kstatus "sigs.k8s.io/cli-utils/pkg/kstatus/status"
	"sigs.k8s.io/cli-utils/pkg/object"

	"github.com/octoploy/octoploy-go/internal/k8sobj"
	"github.com/octoploy/octoploy-go/internal/log"
	"github.com/octoploy/octoploy-go/internal/printer"
)

var waitLog = log.Named("cluster")

// WaitReady polls objs until every one reaches kstatus.CurrentStatus or ctx's deadline
// expires, used as the reconciler's post-apply readiness gate.
func (d *Dynamic) WaitReady(ctx context.Context, objs []*k8sobj.Object) error {
	if d.crClient == nil {
		return fmt.Errorf("cluster client not connected")
	}

	resources := make([]object.ObjMetadata, 0, len(objs))
	for _, obj := range objs {
		u := &unstructured.Unstructured{Object: obj.Data}
		id, err := object.RuntimeToObjMeta(u)
		if err != nil {
			return err
		}
		resources = append(resources, id)
	}
	if len(resources) == 0 {
		return nil
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	poller := polling.NewStatusPoller(d.crClient, d.mapper, polling.Options{})
	eventCh := poller.Poll(cancelCtx, resources, polling.PollOptions{PollInterval: 2 * time.Second})

	colWidths := printer.CalcLen(resources)
	statusCollector := collector.NewResourceStatusCollector(resources)
	done := statusCollector.ListenWithObserver(eventCh, waitObserver(cancel, kstatus.CurrentStatus, colWidths))
	<-done

	if statusCollector.Error != nil {
		return statusCollector.Error
	}

	if ctx.Err() != nil {
		var joined []error
		for _, id := range resources {
			rs := statusCollector.ResourceStatuses[id]
			if rs != nil && rs.Status != kstatus.CurrentStatus {
				joined = append(joined, fmt.Errorf("resource not ready: %s (%s)", id.String(), rs.Status))
			}
		}
		joined = append(joined, ctx.Err())
		return errors.Join(joined...)
	}
	return nil
}

func waitObserver(cancel context.CancelFunc, desired kstatus.Status, widths *printer.Len) collector.ObserverFunc {
	return func(c *collector.ResourceStatusCollector, _ pollEvent.Event) {
		var rss []*pollEvent.ResourceStatus
		var nonReady []*pollEvent.ResourceStatus

		for _, rs := range c.ResourceStatuses {
			if rs == nil {
				continue
			}
			if rs.Status == kstatus.UnknownStatus && desired == kstatus.NotFoundStatus {
				continue
			}
			rss = append(rss, rs)
			if rs.Status != desired {
				nonReady = append(nonReady, rs)
			}
		}

		if aggregator.AggregateStatus(rss, desired) == desired {
			cancel()
			return
		}

		if len(nonReady) > 0 {
			sort.Slice(nonReady, func(i, j int) bool {
				return nonReady[i].Identifier.Name < nonReady[j].Identifier.Name
			})
			first := nonReady[0]
			kindName := fmt.Sprintf("%s/%s", first.Identifier.GroupKind.Kind, first.Identifier.Name)
			waitLog.Infof("waiting: %-*s -> %s", widths.KindNameMaxLen, kindName, first.Status)
		}
	}
}
