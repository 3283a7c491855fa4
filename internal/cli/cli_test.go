package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/okian/rally/internal/adapters/storage"
	"github.com/okian/rally/internal/domain/predict"
	. "github.com/smartystreets/goconvey/convey"
)

const history = `date,team_one_players,team_two_players,team_one_total_points,team_two_total_points,winner,retired
01-12-2021,Amy,Bob,21,15,1,False
02-12-2021,Amy,Cat,18,21,2,False
02-12-2021,Dan,Eve,3,0,1,True
03-12-2021,Bob,Cat,21,10,1,False
`

func writeDataset(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ws.csv")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command and returns what it wrote to stdout.
func execute(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestFeaturesCmd(t *testing.T) {
	Convey("Given a history with a retired match", t, func() {
		data := writeDataset(t, history)

		Convey("When features are written to stdout", func() {
			out, err := execute("features", "--data", data)

			Convey("Then there is a header and one row per played match", func() {
				So(err, ShouldBeNil)
				lines := nonEmptyLines(out)
				So(lines, ShouldHaveLength, 4)
				So(lines[0], ShouldEqual, "match_id,player1,player2,age,elo1,elo2,grad1,grad2,winner")
				So(lines[1], ShouldContainSubstring, ",amy,bob,31,1512,1488,0,0,1")
				So(out, ShouldNotContainSubstring, "dan")
			})
		})

		Convey("When features are split into train and test files", func() {
			dir := t.TempDir()
			train := filepath.Join(dir, "train.csv")
			test := filepath.Join(dir, "test.csv")
			_, err := execute("features", "--data", data, "--out", train, "--test", test, "--test-fraction", "0.34")
			So(err, ShouldBeNil)

			Convey("Then every row lands in exactly one file", func() {
				a, err := os.ReadFile(train)
				So(err, ShouldBeNil)
				b, err := os.ReadFile(test)
				So(err, ShouldBeNil)
				So(len(nonEmptyLines(string(a)))+len(nonEmptyLines(string(b))), ShouldEqual, 3+2)
			})
		})

		Convey("When the reference date is invalid", func() {
			_, err := execute("features", "--data", data, "--reference-date", "tomorrow")

			Convey("Then the command fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a missing dataset", t, func() {
		_, err := execute("features", "--data", filepath.Join(t.TempDir(), "nope.csv"))

		Convey("Then the command fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestTraceCmd(t *testing.T) {
	Convey("Given a history", t, func() {
		data := writeDataset(t, history)

		Convey("When tracing one competitor", func() {
			out, err := execute("trace", "--data", data, "Cat")

			Convey("Then every match is listed with the sentinel before the first one", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "1512.41")
				So(out, ShouldContainSubstring, "1499.57")
				So(out, ShouldContainSubstring, "-")
			})
		})

		Convey("When tracing one competitor's played matches only", func() {
			out, err := execute("trace", "--data", data, "--played-only", "amy")

			Convey("Then the match amy sat out is omitted", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "1512.00")
				So(out, ShouldContainSubstring, "1499.59")
				So(out, ShouldNotContainSubstring, "2021-12-03")
			})
		})

		Convey("When tracing several competitors", func() {
			out, err := execute("trace", "--data", data, "amy", "bob")

			Convey("Then each gets a column", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "1488.00")
				So(out, ShouldContainSubstring, "1500.84")
				So(out, ShouldContainSubstring, "1512.00")
			})
		})

		Convey("When tracing an unknown competitor", func() {
			_, err := execute("trace", "--data", data, "zed")

			Convey("Then the command fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "zed")
			})
		})

		Convey("When no competitor is named", func() {
			_, err := execute("trace", "--data", data)

			Convey("Then the arguments are rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLeaderboardCmd(t *testing.T) {
	Convey("Given a history", t, func() {
		data := writeDataset(t, history)

		Convey("When printing the top two", func() {
			out, err := execute("leaderboard", "--data", data, "--top", "2")

			Convey("Then the two highest ratings are shown in order", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "bob")
				So(out, ShouldContainSubstring, "amy")
				So(out, ShouldNotContainSubstring, "cat")
				So(strings.Index(out, "bob"), ShouldBeLessThan, strings.Index(out, "amy"))
				So(out, ShouldContainSubstring, "+12.84")
			})
		})

		Convey("When the limit is not positive", func() {
			_, err := execute("leaderboard", "--data", data, "--top", "0")

			Convey("Then the command fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestImportCmd(t *testing.T) {
	Convey("Given a history and an empty database", t, func() {
		data := writeDataset(t, history)
		db := filepath.Join(t.TempDir(), "rally.db")

		Convey("When importing twice", func() {
			first, err := execute("import", "--data", data, "--db", db)
			So(err, ShouldBeNil)
			second, err := execute("import", "--data", data, "--db", db)
			So(err, ShouldBeNil)

			Convey("Then the second import skips every stored match", func() {
				So(first, ShouldContainSubstring, "imported 3 of 3 matches (3 stored)")
				So(second, ShouldContainSubstring, "imported 0 of 3 matches (3 stored)")

				store, err := storage.Open(db)
				So(err, ShouldBeNil)
				defer store.Close()
				matches, err := store.ListMatches(t.Context())
				So(err, ShouldBeNil)
				So(matches, ShouldHaveLength, 3)
				So(matches[0].PlayerA, ShouldEqual, "amy")
			})
		})

		Convey("When a later import predates the stored history", func() {
			_, err := execute("import", "--data", data, "--db", db)
			So(err, ShouldBeNil)
			older := writeDataset(t, `date,team_one_players,team_two_players,team_one_total_points,team_two_total_points,winner,retired
01-11-2021,Fay,Gus,21,19,1,False
`)
			_, err = execute("import", "--data", older, "--db", db)

			Convey("Then the import is refused", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestPredictCmd(t *testing.T) {
	Convey("Given an explicit feature vector", t, func() {
		Convey("When player 2 is rated higher", func() {
			out, err := execute("predict", "--age", "30", "--elo1", "1480", "--elo2", "1520", "--grad1", "0", "--grad2", "0")

			Convey("Then the baseline picks player 2", func() {
				So(err, ShouldBeNil)
				So(strings.TrimSpace(out), ShouldEqual, string(predict.LabelPlayer2))
			})
		})

		Convey("When a feature is missing", func() {
			_, err := execute("predict", "--age", "30", "--elo1", "1480", "--elo2", "1520", "--grad1", "0")

			Convey("Then the command names it", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "--grad2")
			})
		})
	})

	Convey("Given two named competitors", t, func() {
		data := writeDataset(t, history)

		Convey("When bob meets cat", func() {
			out, err := execute("predict", "--data", data, "--player1", "Bob", "--player2", "Cat", "--date", "05-12-2021")

			Convey("Then the rising rating wins", func() {
				So(err, ShouldBeNil)
				So(strings.TrimSpace(out), ShouldEqual, string(predict.LabelPlayer1))
			})
		})

		Convey("When the sides are swapped", func() {
			out, err := execute("predict", "--data", data, "--player1", "cat", "--player2", "bob")

			Convey("Then the label follows", func() {
				So(err, ShouldBeNil)
				So(strings.TrimSpace(out), ShouldEqual, string(predict.LabelPlayer2))
			})
		})

		Convey("When a competitor is paired with itself", func() {
			_, err := execute("predict", "--data", data, "--player1", "cat", "--player2", "Cat")

			Convey("Then the command fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When the date does not parse", func() {
			_, err := execute("predict", "--data", data, "--player1", "cat", "--player2", "bob", "--date", "2021/12/05")

			Convey("Then the command fails", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a model server", t, func() {
		code := "3"
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"outputs":[` + code + `]}`))
		}))
		defer srv.Close()
		args := []string{"predict", "--url", srv.URL, "--age", "1", "--elo1", "1500", "--elo2", "1500", "--grad1", "0", "--grad2", "0"}

		Convey("When it answers with an unknown code", func() {
			out, err := execute(args...)

			Convey("Then ERROR is printed and the command fails", func() {
				So(err, ShouldNotBeNil)
				So(strings.TrimSpace(out), ShouldEqual, string(predict.LabelError))
			})
		})

		Convey("When it answers with a known code", func() {
			code = "2"
			out, err := execute(args...)

			Convey("Then the mapped label is printed", func() {
				So(err, ShouldBeNil)
				So(strings.TrimSpace(out), ShouldEqual, string(predict.LabelPlayer2))
			})
		})
	})
}

func TestSubmitCmd(t *testing.T) {
	Convey("Given a server that remembers match ids", t, func() {
		data := writeDataset(t, history)

		var (
			mu       sync.Mutex
			received []matchPayload
			seen     = map[string]bool{}
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var p matchPayload
			if r.URL.Path != "/matches" || json.NewDecoder(r.Body).Decode(&p) != nil {
				http.Error(w, "bad request", http.StatusBadRequest)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			received = append(received, p)
			if seen[p.MatchID] {
				w.WriteHeader(http.StatusOK)
				return
			}
			seen[p.MatchID] = true
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		Convey("When the history is submitted twice", func() {
			first, err := execute("submit", "--data", data, "--url", srv.URL+"/")
			So(err, ShouldBeNil)
			second, err := execute("submit", "--data", data, "--url", srv.URL)
			So(err, ShouldBeNil)

			Convey("Then matches arrive in order and repeats are duplicates", func() {
				So(first, ShouldContainSubstring, "3 accepted, 0 duplicate, 0 failed")
				So(second, ShouldContainSubstring, "0 accepted, 3 duplicate, 0 failed")
				So(received[0].Player1, ShouldEqual, "amy")
				So(received[0].Date, ShouldEqual, "2021-12-01")
				So(received[2].Date, ShouldEqual, "2021-12-03")
			})
		})

		Convey("When only the first match is submitted", func() {
			out, err := execute("submit", "--data", data, "--url", srv.URL, "--limit", "1")

			Convey("Then a single match is sent", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "submitted 1 matches")
			})
		})
	})

	Convey("Given a server that rejects everything", t, func() {
		data := writeDataset(t, history)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"code":"bad_request"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		Convey("When submitting", func() {
			out, err := execute("submit", "--data", data, "--url", srv.URL)

			Convey("Then every failure is counted", func() {
				So(err, ShouldNotBeNil)
				So(out, ShouldContainSubstring, "3 failed")
			})
		})

		Convey("When stopping at the first error", func() {
			out, err := execute("submit", "--data", data, "--url", srv.URL, "--stop-on-error")

			Convey("Then only one match is attempted", func() {
				So(err, ShouldNotBeNil)
				So(out, ShouldContainSubstring, "0 accepted, 0 duplicate, 1 failed")
			})
		})
	})
}
