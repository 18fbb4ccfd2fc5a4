package factory

import (
	"github.com/LeJamon/goAMM/internal/core/asset"
	"github.com/LeJamon/goAMM/internal/core/authtoken"
	"github.com/LeJamon/goAMM/internal/core/pathprovider"
	"github.com/LeJamon/goAMM/internal/core/pool"
	"github.com/LeJamon/goAMM/internal/core/runtime"
	"github.com/pkg/errors"
)

// collectFees(pool) claims the protocol fee of a pool. Plain factories pass
// the LP on to the owner. Oyl factories receive both underlying assets and
// convert each into the treasury asset before paying out.
func (f *Factory) collectFees(cc *runtime.CallContext, st *State, args *runtime.Args) (*runtime.Response, error) {
	if err := authtoken.Require(cc); err != nil {
		return nil, err
	}
	id, err := args.ID()
	if err != nil {
		return nil, err
	}
	collected, err := cc.Call(id, runtime.NewCall(pool.OpCollectFees), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "collect fees of %s", id)
	}

	resp := runtime.Forward(cc.Incoming)
	if st.Flavor != pool.FlavorOyl || st.Treasury.IsZero() {
		resp.Parcel = resp.Parcel.Merge(collected.Parcel)
		return resp, nil
	}
	for _, t := range collected.Parcel {
		out, err := f.convert(cc, st, t)
		if err != nil {
			return nil, err
		}
		resp.Parcel = resp.Parcel.Merge(out)
	}
	return resp, nil
}

// convert swaps t into the treasury asset along the cached path, or the
// direct pair when nothing is cached. Without a route, t is paid out as is;
// a hop that fails leaves the intermediate asset to be paid out.
func (f *Factory) convert(cc *runtime.CallContext, st *State, t asset.Transfer) (asset.Parcel, error) {
	if t.ID == st.Treasury || t.Value == 0 {
		return asset.Parcel{t}, nil
	}

	var path []asset.ID
	if !st.PathProvider.IsZero() {
		resp, err := cc.Call(st.PathProvider, pathprovider.GetPathCall(t.ID, st.Treasury), nil)
		if err != nil {
			return nil, errors.Wrap(err, "treasury path")
		}
		path = asset.DecodePath(resp.Data)
	}
	if len(path) < 2 {
		path = []asset.ID{t.ID, st.Treasury}
	}

	pools := make([]asset.ID, len(path)-1)
	for i := range pools {
		id, err := Lookup(cc.View(), cc.Self, path[i], path[i+1])
		if err != nil {
			return asset.Parcel{t}, nil
		}
		pools[i] = id
	}

	held := asset.Parcel{t}
	for _, id := range pools {
		resp, err := cc.Call(id, runtime.NewCall(pool.OpSwapExactIn, 0), held)
		if err != nil {
			// a hop too small to price; pay what is held so far
			return held, nil
		}
		held = resp.Parcel
	}
	return held, nil
}
