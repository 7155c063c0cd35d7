package main

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	actx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/act"
	"github.com/tanpawarit/Chative-Pipeline-Agent/agent/agents/pipeline"
	contractx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/contract"
	llmx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/llm"
	"github.com/tanpawarit/Chative-Pipeline-Agent/agent/modules/llmnlg"
	"github.com/tanpawarit/Chative-Pipeline-Agent/agent/modules/llmnlu"
	"github.com/tanpawarit/Chative-Pipeline-Agent/agent/modules/ruledst"
	"github.com/tanpawarit/Chative-Pipeline-Agent/agent/modules/scripted"
	"github.com/tanpawarit/Chative-Pipeline-Agent/agent/modules/templatenlg"
	promptx "github.com/tanpawarit/Chative-Pipeline-Agent/agent/prompt"
	"github.com/tanpawarit/Chative-Pipeline-Agent/agent/record"
	"github.com/tanpawarit/Chative-Pipeline-Agent/agent/session"
	statex "github.com/tanpawarit/Chative-Pipeline-Agent/agent/state"
	configx "github.com/tanpawarit/Chative-Pipeline-Agent/pkg/config"
	_ "github.com/tanpawarit/Chative-Pipeline-Agent/pkg/logger/autoload"
	openrouterx "github.com/tanpawarit/Chative-Pipeline-Agent/pkg/openrouter"
	qstashx "github.com/tanpawarit/Chative-Pipeline-Agent/pkg/qstash"
)

type AppConfig struct {
	UserScenario    string `envconfig:"USER_SCENARIO" default:"scenarios/taxi_user.yaml"`
	SysScenario     string `envconfig:"SYS_SCENARIO" default:"scenarios/taxi_sys.yaml"`
	MaxTurns        int    `envconfig:"MAX_TURNS" default:"20"`
	UseLLM          bool   `envconfig:"USE_LLM" default:"false"`
	SnapshotBackend string `envconfig:"SNAPSHOT_BACKEND"`
	RecordTurns     bool   `envconfig:"RECORD_TURNS" default:"false"`
	NotifyURL       string `envconfig:"NOTIFY_URL"`
}

type languageModules struct {
	nlu     contractx.NLU
	userNLG contractx.NLG
	sysNLG  contractx.NLG
}

func main() {
	ctx := context.Background()
	appCfg := configx.MustNew[AppConfig]("APP")

	userPolicy := mustScriptedPolicy(appCfg.UserScenario)
	sysPolicy := mustScriptedPolicy(appCfg.SysScenario)

	var lang languageModules
	if appCfg.UseLLM {
		lang = mustLanguageModules(ctx)
	}

	sys, err := pipeline.New(lang.nlu, ruledst.New(), sysPolicy, lang.sysNLG, statex.RoleSys)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build system agent")
	}
	user, err := pipeline.New(lang.nlu, ruledst.New(), userPolicy, lang.userNLG, statex.RoleUser)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build user agent")
	}

	opts := []session.Option{session.WithLogger(log.Logger)}
	if store := snapshotStore(appCfg.SnapshotBackend); store != nil {
		opts = append(opts, session.WithStore(store))
	}
	if appCfg.RecordTurns {
		recordCfg := configx.MustNew[record.Config]("POSTGRES")
		db, err := record.Open(*recordCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open postgres")
		}
		defer db.Close()

		recorder, err := record.NewBunStore(db)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build turn recorder")
		}
		if err := recorder.CreateSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create turn record schema")
		}
		opts = append(opts, session.WithRecorder(recorder))
	}
	if strings.TrimSpace(appCfg.NotifyURL) != "" {
		qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
		opts = append(opts, session.WithNotifier(qstashx.MustNew(*qstashCfg), appCfg.NotifyURL))
	}

	sess, err := session.New(sys, user, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build session")
	}
	if err := sess.InitSession(nil); err != nil {
		log.Fatal().Err(err).Msg("failed to init session")
	}

	var lastObservation actx.Act
	if appCfg.UseLLM {
		lastObservation = actx.Utterance("Hello, how can I help you?")
	}
	for i := 0; i < appCfg.MaxTurns; i++ {
		res, err := sess.NextTurn(ctx, lastObservation)
		if err != nil {
			log.Fatal().Err(err).Int("turn", i+1).Msg("turn failed")
		}
		log.Info().
			Int("turn", sess.Turn()).
			Str("user", actx.Text(res.UserResponse)).
			Str("sys", actx.Text(res.SysResponse)).
			Float64("reward", res.Reward).
			Msg("turn")

		if res.SessionOver {
			log.Info().Str("session_id", sess.ID()).Float64("reward", res.Reward).Msg("session over")
			return
		}
		lastObservation = res.SysResponse
	}
	log.Warn().Int("max_turns", appCfg.MaxTurns).Msg("session stopped before the user finished")
}

func mustScriptedPolicy(path string) *scripted.Policy {
	scenario, err := scripted.LoadScenario(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to load scenario")
	}
	policy, err := scripted.New(scenario)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to build scripted policy")
	}
	return policy
}

func mustLanguageModules(ctx context.Context) languageModules {
	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid openrouter config")
	}
	prompts := promptx.LoadPromptSet()

	nluCfg := llmCfg.OpenRouterFor(contractx.ModuleNLU)
	chatModel, err := nluCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create nlu chat model")
	}
	nlu, err := llmnlu.New(ctx, chatModel, prompts.NLU)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build nlu")
	}

	nlgCfg := llmCfg.OpenRouterFor(contractx.ModuleNLG)
	client := openrouterx.NewClient(nlgCfg)
	if client == nil {
		log.Fatal().Msg("failed to initialize openrouter client")
	}
	nlgModuleCfg := llmnlg.Config{
		Model:       nlgCfg.Model,
		Temperature: float64(nlgCfg.Temperature),
	}
	if nlgCfg.MaxCompletionToken != nil {
		nlgModuleCfg.MaxTokens = *nlgCfg.MaxCompletionToken
	}
	nlg, err := llmnlg.New(client, nlgModuleCfg, prompts.NLG)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build nlg")
	}

	return languageModules{nlu: nlu, userNLG: nlg, sysNLG: templatenlg.New()}
}

func snapshotStore(backend string) statex.Store {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "":
		return nil
	case "redis":
		redisCfg := configx.MustNew[statex.RedisConfig]("REDIS")
		rdb, err := statex.NewRedisClient(*redisCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		store, err := statex.NewRedisStore(rdb)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build redis snapshot store")
		}
		return store
	case "upstash":
		upstashCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*upstashCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build upstash snapshot store")
		}
		return store
	default:
		log.Fatal().Str("backend", backend).Msg("unknown snapshot backend")
		return nil
	}
}
