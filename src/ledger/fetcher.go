package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"tokenfeed/src/interfaces"
	"tokenfeed/src/logger"
	"tokenfeed/src/models"
)

// -----------------------------------------------------------------------------
// SignatureSelector
// -----------------------------------------------------------------------------

// SignatureSelector names the address space to resolve signatures from.
// Exactly one of the three fields should be set.
type SignatureSelector struct {
	PoolAddress    string
	ProgramIDs     []string
	AccountAddress string
}

// -----------------------------------------------------------------------------

// FetchedTransaction pairs a signature with its fetched body.
type FetchedTransaction struct {
	Signature solana.Signature
	Result    *rpc.GetTransactionResult
}

// -----------------------------------------------------------------------------
// Fetcher
// -----------------------------------------------------------------------------

// Fetcher resolves relevant transaction signatures from the ledger RPC
// endpoint and fetches their bodies in rate-limited chunks.
type Fetcher struct {
	Config *models.MConfig
	RPC    interfaces.ILedgerRPC
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewFetcher(cfg *models.MConfig, rpcClient interfaces.ILedgerRPC, log *logger.Logger) *Fetcher {
	return &Fetcher{
		Config: cfg,
		RPC:    rpcClient,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// ResolveSignatures returns the most recent limit signatures for the
// selector, newest first, deduplicated. Signatures of failed transactions are
// dropped at this stage. The multi-program selector fans out one lookup per
// program id, then merges, dedupes and truncates.
func (f *Fetcher) ResolveSignatures(ctx context.Context, sel SignatureSelector, limit int) ([]solana.Signature, error) {
	if limit <= 0 {
		limit = f.Config.Ledger.SignatureLimit
	}

	switch {
	case sel.PoolAddress != "":
		return f.resolveForAddress(ctx, sel.PoolAddress, limit)

	case sel.AccountAddress != "":
		return f.resolveForAddress(ctx, sel.AccountAddress, limit)

	case len(sel.ProgramIDs) > 0:
		return f.resolveForPrograms(ctx, sel.ProgramIDs, limit)

	default:
		return nil, fmt.Errorf("empty signature selector")
	}
}

// -----------------------------------------------------------------------------

func (f *Fetcher) resolveForAddress(ctx context.Context, address string, limit int) ([]solana.Signature, error) {
	pub, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %s: %w", address, err)
	}

	infos, err := f.RPC.GetSignaturesForAddress(ctx, pub, limit)
	if err != nil {
		return nil, fmt.Errorf("get signatures for %s: %w", address, err)
	}

	return dedupeSignatures(infos, limit), nil
}

// -----------------------------------------------------------------------------

func (f *Fetcher) resolveForPrograms(ctx context.Context, programIDs []string, limit int) ([]solana.Signature, error) {
	var mu sync.Mutex
	var wg sync.WaitGroup
	var merged []*rpc.TransactionSignature
	failures := 0

	for _, id := range programIDs {
		pub, err := solana.PublicKeyFromBase58(id)
		if err != nil {
			f.Logger.Warning("Skipping invalid program id %s: %v", id, err)
			continue
		}

		wg.Add(1)
		go func(program solana.PublicKey) {
			defer wg.Done()

			infos, err := f.RPC.GetSignaturesForAddress(ctx, program, limit)
			if err != nil {
				f.Logger.Warning("Signature lookup failed for program %s: %v", program, err)
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}

			mu.Lock()
			merged = append(merged, infos...)
			mu.Unlock()
		}(pub)
	}
	wg.Wait()

	if len(merged) == 0 && failures > 0 {
		return nil, fmt.Errorf("all %d program lookups failed", failures)
	}

	// Newest first across programs before truncation.
	sort.SliceStable(merged, func(i, j int) bool {
		return signatureTime(merged[i]) > signatureTime(merged[j])
	})

	return dedupeSignatures(merged, limit), nil
}

// -----------------------------------------------------------------------------

func signatureTime(info *rpc.TransactionSignature) int64 {
	if info.BlockTime != nil {
		return int64(*info.BlockTime)
	}
	return int64(info.Slot)
}

// -----------------------------------------------------------------------------

func dedupeSignatures(infos []*rpc.TransactionSignature, limit int) []solana.Signature {
	seen := make(map[solana.Signature]struct{}, len(infos))
	out := make([]solana.Signature, 0, len(infos))

	for _, info := range infos {
		if info.Err != nil {
			continue // failed transactions cannot be trades
		}
		if _, ok := seen[info.Signature]; ok {
			continue
		}
		seen[info.Signature] = struct{}{}
		out = append(out, info.Signature)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// FetchBatch fetches transaction bodies in fixed-size chunks with an
// inter-chunk delay to respect upstream rate limits. Fetches inside a chunk
// run with bounded concurrency. A failed chunk is logged and skipped; partial
// results from the other chunks are still returned.
func (f *Fetcher) FetchBatch(ctx context.Context, signatures []solana.Signature) ([]FetchedTransaction, error) {
	chunkSize := f.Config.Ledger.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 5
	}
	delay := time.Duration(f.Config.Ledger.ChunkDelayMs) * time.Millisecond

	var results []FetchedTransaction

	for start := 0; start < len(signatures); start += chunkSize {
		end := start + chunkSize
		if end > len(signatures) {
			end = len(signatures)
		}

		fetched, err := f.fetchChunk(ctx, signatures[start:end])
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			f.Logger.Warning("Skipping chunk %d-%d: %v", start, end, err)
		} else {
			results = append(results, fetched...)
		}

		if end < len(signatures) {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return results, ctx.Err()
			}
		}
	}

	return results, nil
}

// -----------------------------------------------------------------------------

func (f *Fetcher) fetchChunk(ctx context.Context, signatures []solana.Signature) ([]FetchedTransaction, error) {
	var mu sync.Mutex
	var wg sync.WaitGroup
	var fetched []FetchedTransaction
	errCount := 0

	concurrency := f.Config.Ledger.ChunkConcurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	sem := make(chan struct{}, concurrency)

	for _, sig := range signatures {
		wg.Add(1)
		go func(sig solana.Signature) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := f.RPC.GetTransaction(ctx, sig)
			if err != nil {
				f.Logger.Debug("Transaction fetch failed for %s: %v", sig, err)
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}

			mu.Lock()
			fetched = append(fetched, FetchedTransaction{Signature: sig, Result: res})
			mu.Unlock()
		}(sig)
	}
	wg.Wait()

	if len(fetched) == 0 && errCount > 0 {
		return nil, fmt.Errorf("all %d fetches in chunk failed", errCount)
	}
	return fetched, nil
}
